package repository

import (
	"github.com/pkg/errors"

	"token_airdrop/models"
)

var ErrCorruptLog = errors.New("distribution log is corrupt")

// IsCompleted reports whether any record for address is DONE.
// A FAILED record never blocks a retry, wherever it sits in the log.
func IsCompleted(records []models.DistributionRecord, address string) bool {
	for _, r := range records {
		if r.PublicKey == address && r.Status == models.StatusDone {
			return true
		}
	}
	return false
}

// Append adds record to the end of the log. Earlier records are never touched.
func Append(records []models.DistributionRecord, record models.DistributionRecord) []models.DistributionRecord {
	return append(records, record)
}

// RecordsFor returns every record of address in log order.
func RecordsFor(records []models.DistributionRecord, address string) []models.DistributionRecord {
	out := make([]models.DistributionRecord, 0)
	for _, r := range records {
		if r.PublicKey == address {
			out = append(out, r)
		}
	}
	return out
}

func validateRecords(records []models.DistributionRecord) error {
	for i, r := range records {
		if !r.Status.Valid() {
			return errors.Wrapf(ErrCorruptLog, "record %d: status %d", i, uint8(r.Status))
		}
	}
	return nil
}
