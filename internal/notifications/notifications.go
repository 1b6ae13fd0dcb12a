// Package notifications implements the expiry scan-and-dispatch process.
//
// A run computes the calendar window [today, today+horizon] in the configured
// time zone, selects unnotified files whose expiry date falls inside it, and
// dispatches one email per file. A file is marked notified only after its
// email was accepted by the mail transport. Candidates are processed one at a
// time so at most one file can be left sent-but-unmarked by a failure.
package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/pkg/calendar"
)

// Reason classifies a per-file dispatch failure.
type Reason string

const (
	ReasonStoreUnavailable       Reason = "store_unavailable"
	ReasonRecipientUnresolved    Reason = "recipient_unresolved"
	ReasonSendFailed             Reason = "send_failed"
	ReasonPersistAfterSendFailed Reason = "persist_after_send_failed"
)

// Notice identifies a file whose owner was notified.
type Notice struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Failure records why a file was not notified in a run.
type Failure struct {
	Reason Reason `json:"reason"`
	Error  string `json:"error"`
}

// Manifest reports the outcome of a run. Skipped lists candidates that were
// already notified, or deleted, by the time they were dispatched.
type Manifest struct {
	Window     calendar.Window       `json:"window"`
	Candidates []uuid.UUID           `json:"candidates"`
	Notified   []Notice              `json:"notified"`
	Skipped    []uuid.UUID           `json:"skipped"`
	Failures   map[uuid.UUID]Failure `json:"failures"`
	Cancelled  bool                  `json:"cancelled"`
	DryRun     bool                  `json:"dry_run"`
	Duration   time.Duration         `json:"-"`
}

func newManifest() *Manifest {
	return &Manifest{
		Candidates: make([]uuid.UUID, 0),
		Notified:   make([]Notice, 0),
		Skipped:    make([]uuid.UUID, 0),
		Failures:   make(map[uuid.UUID]Failure),
	}
}

// NotifiedIDs returns the ids of notified files in dispatch order.
func (m *Manifest) NotifiedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(m.Notified))
	for i, n := range m.Notified {
		ids[i] = n.ID
	}
	return ids
}

// Emails returns the recipient of each notified file in dispatch order.
func (m *Manifest) Emails() []string {
	emails := make([]string, len(m.Notified))
	for i, n := range m.Notified {
		emails[i] = n.Email
	}
	return emails
}

// Inconsistent returns the ids of files whose email was sent but whose
// notified flag could not be persisted.
func (m *Manifest) Inconsistent() []uuid.UUID {
	var ids []uuid.UUID
	for id, f := range m.Failures {
		if f.Reason == ReasonPersistAfterSendFailed {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Manifest) fail(id uuid.UUID, reason Reason, err error) {
	m.Failures[id] = Failure{Reason: reason, Error: err.Error()}
}
