package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"token_airdrop/models"
)

const distributionLogSchema = `
CREATE TABLE IF NOT EXISTS distribution_log (
    id         BIGSERIAL PRIMARY KEY,
    public_key TEXT        NOT NULL,
    amount     NUMERIC(20) NOT NULL,
    status     SMALLINT    NOT NULL,
    txn        TEXT,
    error      TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS distribution_log_public_key_idx ON distribution_log (public_key);
`

// ProgressPostgres keeps the log as an append-only table. Persist inserts
// only the records appended since the last Load or Persist.
type ProgressPostgres struct {
	db        *sqlx.DB
	persisted int
}

func NewProgressPostgres(db *sqlx.DB) *ProgressPostgres {
	return &ProgressPostgres{db: db}
}

type distributionRow struct {
	PublicKey string         `db:"public_key"`
	Amount    string         `db:"amount"`
	Status    int16          `db:"status"`
	Txn       sql.NullString `db:"txn"`
	Error     sql.NullString `db:"error"`
}

func (p *ProgressPostgres) Load(ctx context.Context) ([]models.DistributionRecord, error) {
	if _, err := p.db.ExecContext(ctx, distributionLogSchema); err != nil {
		return nil, errors.Wrap(err, "create distribution_log table")
	}

	records, err := p.Records(ctx)
	if err != nil {
		return nil, err
	}
	p.persisted = len(records)
	return records, nil
}

// Records reads the log without creating the table. A missing table is an empty log.
func (p *ProgressPostgres) Records(ctx context.Context) ([]models.DistributionRecord, error) {
	var rows []distributionRow
	query := `SELECT public_key, amount::text AS amount, status, txn, error FROM distribution_log ORDER BY id`
	if err := p.db.SelectContext(ctx, &rows, query); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
			return []models.DistributionRecord{}, nil
		}
		return nil, errors.Wrap(err, "load distribution_log")
	}

	records := make([]models.DistributionRecord, 0, len(rows))
	for i, row := range rows {
		record, err := row.record()
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		records = append(records, record)
	}
	return records, nil
}

func (row distributionRow) record() (models.DistributionRecord, error) {
	amount, err := strconv.ParseUint(row.Amount, 10, 64)
	if err != nil {
		return models.DistributionRecord{}, errors.Wrapf(ErrCorruptLog, "amount %q", row.Amount)
	}
	if row.Status < 0 || row.Status > int16(models.StatusDone) {
		return models.DistributionRecord{}, errors.Wrapf(ErrCorruptLog, "status %d", row.Status)
	}
	return models.DistributionRecord{
		PublicKey: row.PublicKey,
		Amount:    amount,
		Status:    models.Status(row.Status),
		Txn:       row.Txn.String,
		Error:     row.Error.String,
	}, nil
}

func (p *ProgressPostgres) Persist(ctx context.Context, records []models.DistributionRecord) error {
	if len(records) < p.persisted {
		return errors.Errorf("distribution log shrank from %d to %d records", p.persisted, len(records))
	}
	if len(records) == p.persisted {
		return nil
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin distribution_log tx")
	}
	defer tx.Rollback()

	query := `INSERT INTO distribution_log (public_key, amount, status, txn, error) VALUES ($1, $2, $3, $4, $5)`
	for _, r := range records[p.persisted:] {
		if _, err := tx.ExecContext(ctx, query,
			r.PublicKey,
			strconv.FormatUint(r.Amount, 10),
			int16(r.Status),
			nullString(r.Txn),
			nullString(r.Error),
		); err != nil {
			return errors.Wrapf(err, "insert record for %s", r.PublicKey)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit distribution_log tx")
	}
	p.persisted = len(records)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
