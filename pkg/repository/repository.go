package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"token_airdrop/models"
)

// LogReader reads the distribution log without side effects. Safe for
// concurrent use alongside the single writer.
type LogReader interface {
	Records(ctx context.Context) ([]models.DistributionRecord, error)
}

// Progress is the persisted distribution log.
// Only one process may write a given log at a time; this is not enforced.
type Progress interface {
	LogReader
	// Load returns the existing log, creating an empty one if none exists yet,
	// and fails when the log could not be written back.
	Load(ctx context.Context) ([]models.DistributionRecord, error)
	// Persist makes records the durable state of the log. records always
	// extends the previously loaded or persisted slice.
	Persist(ctx context.Context, records []models.DistributionRecord) error
}

// Recipients is the source of the ordered distribution list.
type Recipients interface {
	Load(ctx context.Context) ([]models.RecipientRequest, error)
}

type Repository struct {
	Progress
	Recipients
}

func NewRepository(progress Progress, recipients Recipients) *Repository {
	return &Repository{
		Progress:   progress,
		Recipients: recipients,
	}
}

func NewFileRepository(logPath, distributionPath string) *Repository {
	return NewRepository(NewProgressFile(logPath), NewRecipientFile(distributionPath))
}

func NewPostgresRepository(db *sqlx.DB, distributionPath string) *Repository {
	return NewRepository(NewProgressPostgres(db), NewRecipientFile(distributionPath))
}
