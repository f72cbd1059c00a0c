package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Status is the outcome of a single distribution attempt.
// The numeric values are persisted in the progress log and must not change.
type Status uint8

const (
	StatusPending Status = iota
	StatusFailed
	StatusDone
)

var ErrUnknownStatus = errors.New("unknown distribution status")

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusFailed:
		return "FAILED"
	case StatusDone:
		return "DONE"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFailed, StatusDone:
		return true
	}
	return false
}

// ParseStatus accepts the enum name (case-insensitive) or its numeric value.
// "COMPLETED" is accepted as DONE for lists exported by the upload form.
func ParseStatus(raw string) (Status, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch v {
	case "PENDING":
		return StatusPending, nil
	case "FAILED":
		return StatusFailed, nil
	case "DONE", "COMPLETED":
		return StatusDone, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > int(StatusDone) {
		return 0, errors.Wrapf(ErrUnknownStatus, "%q", raw)
	}
	return Status(n), nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, errors.Wrapf(ErrUnknownStatus, "%d", uint8(s))
	}
	return []byte(strconv.Itoa(int(s))), nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		parsed, err := ParseStatus(str)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrapf(ErrUnknownStatus, "%s", string(data))
	}
	if n < 0 || n > int(StatusDone) {
		return errors.Wrapf(ErrUnknownStatus, "%d", n)
	}
	*s = Status(n)
	return nil
}
