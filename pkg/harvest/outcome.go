package harvest

import "github.com/punic/dystats/pkg/payload"

// Status is the terminal classification of one fetch attempt or of the
// whole per-item retry loop.
type Status int

const (
	StatusSuccess Status = iota
	StatusRecoverable
	StatusTerminal
)

// Failure reason tags, recorded verbatim in the persisted row.
const (
	ReasonFetchError = "fetch_error"
	ReasonNotFound   = "not_found"
	ReasonParseError = "parse_error"
	ReasonAllNull    = "all_null"
)

// Outcome is the typed result of processing one item. Exactly one of the
// three statuses applies; Record is set only on success.
type Outcome struct {
	Status Status
	Reason string
	Record *payload.Record
}

// Success wraps a normalized record.
func Success(rec payload.Record) Outcome {
	return Outcome{Status: StatusSuccess, Record: &rec}
}

// Recoverable marks an attempt that should be retried.
func Recoverable(reason string) Outcome {
	return Outcome{Status: StatusRecoverable, Reason: reason}
}

// Terminal marks an item that exhausted its retry budget.
func Terminal(reason string) Outcome {
	return Outcome{Status: StatusTerminal, Reason: reason}
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }
