package models

// DistributionRecord is one entry of the progress log.
// Txn is set only for DONE records, Error only for FAILED ones.
type DistributionRecord struct {
	PublicKey string `json:"publicKey" db:"public_key"`
	Amount    uint64 `json:"amount" db:"amount"`
	Status    Status `json:"status" db:"status"`
	Txn       string `json:"txn,omitempty" db:"txn"`
	Error     string `json:"error,omitempty" db:"error"`
}

func NewPendingRecord(req RecipientRequest) DistributionRecord {
	return DistributionRecord{
		PublicKey: req.PublicKey,
		Amount:    req.Amount,
		Status:    StatusPending,
	}
}

func (r *DistributionRecord) Complete(txn string) {
	r.Status = StatusDone
	r.Txn = txn
	r.Error = ""
}

func (r *DistributionRecord) Fail(detail string) {
	r.Status = StatusFailed
	r.Txn = ""
	r.Error = detail
}

// RunSummary is the outcome of one distribution run.
type RunSummary struct {
	Total            int                  `json:"total"`
	Completed        int                  `json:"completed"`
	AlreadyCompleted int                  `json:"alreadyCompleted"`
	Failed           int                  `json:"failed"`
	Pending          int                  `json:"pending"` // dry run only: would be attempted
	Failures         []DistributionRecord `json:"failures,omitempty"`
}

func (s RunSummary) Processed() int {
	return s.Completed + s.AlreadyCompleted + s.Failed + s.Pending
}

func (s RunSummary) NeedsRerun() bool {
	return s.Failed > 0 || s.Processed() < s.Total
}

// LogSummary describes the persisted progress log as a whole.
type LogSummary struct {
	Records             int `json:"records"`
	Done                int `json:"done"`
	Failed              int `json:"failed"`
	Pending             int `json:"pending"`
	Recipients          int `json:"recipients"`
	CompletedRecipients int `json:"completedRecipients"`
}

func SummarizeLog(records []DistributionRecord) LogSummary {
	var out LogSummary
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		out.Records++
		switch r.Status {
		case StatusDone:
			out.Done++
		case StatusFailed:
			out.Failed++
		case StatusPending:
			out.Pending++
		}
		done, ok := seen[r.PublicKey]
		if !ok {
			out.Recipients++
		}
		seen[r.PublicKey] = done || r.Status == StatusDone
	}
	for _, done := range seen {
		if done {
			out.CompletedRecipients++
		}
	}
	return out
}
