package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"token_airdrop/models"
)

var ErrRecipientList = errors.New("malformed distribution list")

// RecipientFile reads the distribution list. Two layouts are accepted:
// a bare array of entries, or {"wallets": [...]} as exported by the upload form.
// Any status/txn fields in the entries are ignored.
type RecipientFile struct {
	path string
}

func NewRecipientFile(path string) *RecipientFile {
	return &RecipientFile{path: path}
}

type recipientEntry struct {
	PublicKey string          `json:"publicKey"`
	Amount    json.RawMessage `json:"amount"`
}

func (r *RecipientFile) Load(_ context.Context) ([]models.RecipientRequest, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read distribution list %s", r.path)
	}
	out, err := ParseRecipients(data)
	if err != nil {
		return nil, errors.Wrap(err, r.path)
	}
	return out, nil
}

func ParseRecipients(data []byte) ([]models.RecipientRequest, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.Wrap(ErrRecipientList, "empty document")
	}

	var entries []recipientEntry
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, errors.Wrapf(ErrRecipientList, "%v", err)
		}
	case '{':
		var doc struct {
			Wallets *[]recipientEntry `json:"wallets"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(ErrRecipientList, "%v", err)
		}
		if doc.Wallets == nil {
			return nil, errors.Wrap(ErrRecipientList, `object without "wallets" array`)
		}
		entries = *doc.Wallets
	default:
		return nil, errors.Wrap(ErrRecipientList, "expected a json array or object")
	}

	out := make([]models.RecipientRequest, 0, len(entries))
	for i, e := range entries {
		amount, err := parseAmount(e.Amount)
		if err != nil {
			return nil, errors.Wrapf(ErrRecipientList, "entry %d (%s): %v", i, e.PublicKey, err)
		}
		out = append(out, models.RecipientRequest{
			PublicKey: e.PublicKey,
			Amount:    amount,
		})
	}
	return out, nil
}

// parseAmount maps a missing or null amount to 0 so the engine can record it
// as a failed request. Anything that is not a non-negative integer is rejected.
func parseAmount(raw json.RawMessage) (uint64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return 0, errors.Errorf("amount %s is not a non-negative integer", text)
	}
	return n, nil
}
