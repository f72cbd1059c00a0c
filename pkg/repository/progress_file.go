package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"token_airdrop/models"
)

// ProgressFile keeps the log as a JSON array on disk.
type ProgressFile struct {
	path string
}

func NewProgressFile(path string) *ProgressFile {
	return &ProgressFile{path: path}
}

// Load returns the log and makes sure it can be written back: a missing log
// is created empty, an existing one is rewritten in place so an unwritable
// cache directory fails here, before any transfer.
func (p *ProgressFile) Load(_ context.Context) ([]models.DistributionRecord, error) {
	dir := filepath.Dir(p.path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logrus.Infof("no cache directory found, creating %s", dir)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create cache directory %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "stat cache directory %s", dir)
	}

	records, err := p.read()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.DistributionRecord{}
	}
	if err := p.write(records); err != nil {
		return nil, errors.Wrapf(err, "distribution log %s is not writable", p.path)
	}
	return records, nil
}

// Records reads the log without touching the disk. A missing log is empty.
func (p *ProgressFile) Records(_ context.Context) ([]models.DistributionRecord, error) {
	records, err := p.read()
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.DistributionRecord{}
	}
	return records, nil
}

// read returns nil, nil when the log does not exist.
func (p *ProgressFile) read() ([]models.DistributionRecord, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read distribution log %s", p.path)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.Wrapf(ErrCorruptLog, "%s is empty", p.path)
	}

	var records []models.DistributionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(ErrCorruptLog, "%s: %v", p.path, err)
	}
	if records == nil {
		return nil, errors.Wrapf(ErrCorruptLog, "%s is not a json array", p.path)
	}
	if err := validateRecords(records); err != nil {
		return nil, errors.Wrap(err, p.path)
	}
	return records, nil
}

func (p *ProgressFile) Persist(_ context.Context, records []models.DistributionRecord) error {
	if records == nil {
		records = []models.DistributionRecord{}
	}
	return p.write(records)
}

// write replaces the log atomically: temp file in the same directory,
// fsync, then rename over the old log.
func (p *ProgressFile) write(records []models.DistributionRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode distribution log")
	}

	tmp, err := os.CreateTemp(filepath.Dir(p.path), "."+filepath.Base(p.path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "create temp log for %s", p.path)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "sync %s", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmpName)
	}
	if err := os.Rename(tmpName, p.path); err != nil {
		return errors.Wrapf(err, "replace distribution log %s", p.path)
	}
	return nil
}
