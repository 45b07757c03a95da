package ir

import (
	"time"
)

// OutcomeOK marks a committed operation. Rejected operations carry the
// ledger error code instead.
const OutcomeOK = "ok"

// Entry is one journal record: an attempted ledger operation and how it
// ended. Rejected attempts are journaled too, so the journal answers
// "who tried what" as well as "what changed".
type Entry struct {
	ID      string    `json:"id"`
	Seq     int64     `json:"seq"`
	Op      string    `json:"op"`
	Args    Object    `json:"args"`
	Signers []string  `json:"signers"`
	Outcome string    `json:"outcome"`
	Message string    `json:"message,omitempty"`
	Result  Object    `json:"result,omitempty"`
	Time    time.Time `json:"time"`
}

// Committed reports whether the operation was applied.
func (e Entry) Committed() bool {
	return e.Outcome == OutcomeOK
}

func (e Entry) identity() Object {
	obj := Object{
		"schema":  String(SchemaVersion),
		"seq":     Int(e.Seq),
		"op":      String(e.Op),
		"args":    orEmpty(e.Args),
		"signers": Strings(e.Signers),
		"outcome": String(e.Outcome),
		"result":  orEmpty(e.Result),
	}
	if e.Message != "" {
		obj["message"] = String(e.Message)
	}
	return obj
}

func orEmpty(obj Object) Object {
	if obj == nil {
		return Object{}
	}
	return obj
}

// Seal assigns the entry's content-addressed ID.
func (e *Entry) Seal() error {
	id, err := EntryID(*e)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}
