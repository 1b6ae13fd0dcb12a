package notifications_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/internal/notifications"
	"github.com/JaimeStill/tickler/pkg/mail"
)

func newDispatcher(store *memoryStore, sender *mockSender) *notifications.Dispatcher {
	return notifications.NewDispatcher(newResolver(), sender, store, time.Second, discard())
}

func TestDispatchNotifiesAndMarks(t *testing.T) {
	a := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-15"))
	store := newMemoryStore(a)
	sender := &mockSender{}

	m := newDispatcher(store, sender).Dispatch(context.Background(), []files.File{a})

	if got := m.NotifiedIDs(); len(got) != 1 || got[0] != a.ID {
		t.Fatalf("notified = %v, want [%s]", got, a.ID)
	}
	if !store.notified(a.ID) {
		t.Error("file not marked notified")
	}
	if len(m.Failures) != 0 {
		t.Errorf("failures = %v", m.Failures)
	}

	msg := sender.sent[0]
	if msg.To != "a@example.com" || msg.Subject != notifications.Subject {
		t.Errorf("message = %+v", msg)
	}
	if !strings.Contains(msg.Body, a.LocationURL) || !strings.Contains(msg.Body, "2024-01-15") {
		t.Errorf("body missing location or expiry: %q", msg.Body)
	}
}

func TestDispatchDedupesCandidates(t *testing.T) {
	a := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-15"))
	store := newMemoryStore(a)
	sender := &mockSender{}

	m := newDispatcher(store, sender).Dispatch(context.Background(), []files.File{a, a, a})

	if sender.count() != 1 {
		t.Errorf("sent %d emails, want 1", sender.count())
	}
	if len(m.Candidates) != 1 || len(m.Notified) != 1 {
		t.Errorf("candidates=%d notified=%d, want 1/1", len(m.Candidates), len(m.Notified))
	}
}

func TestDispatchTwiceSendsOnce(t *testing.T) {
	a := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-15"))
	store := newMemoryStore(a)
	sender := &mockSender{}
	d := newDispatcher(store, sender)

	first := d.Dispatch(context.Background(), []files.File{a})
	second := d.Dispatch(context.Background(), []files.File{a})

	if sender.count() != 1 {
		t.Errorf("sent %d emails across two dispatches, want 1", sender.count())
	}
	if len(first.Notified) != 1 {
		t.Errorf("first dispatch notified = %v, want [%s]", first.NotifiedIDs(), a.ID)
	}
	if len(second.Notified) != 0 || len(second.Failures) != 0 {
		t.Errorf("second dispatch notified=%v failures=%v, want neither", second.NotifiedIDs(), second.Failures)
	}
	if len(second.Skipped) != 1 || second.Skipped[0] != a.ID {
		t.Errorf("second dispatch skipped = %v, want [%s]", second.Skipped, a.ID)
	}
	if got := second.Inconsistent(); len(got) != 0 {
		t.Errorf("consistent record reported inconsistent: %v", got)
	}
}

func TestDispatchSkipsDeletedCandidate(t *testing.T) {
	gone := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-15"))
	sender := &mockSender{}

	m := newDispatcher(newMemoryStore(), sender).Dispatch(context.Background(), []files.File{gone})

	if sender.count() != 0 {
		t.Errorf("sent %d emails for a deleted file", sender.count())
	}
	if len(m.Skipped) != 1 || len(m.Failures) != 0 {
		t.Errorf("skipped=%v failures=%v, want one skip", m.Skipped, m.Failures)
	}
}

func TestDispatchPendingCheckFailure(t *testing.T) {
	a := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-15"))
	b := record("00000000-0000-0000-0000-000000000002", ownerA, date("2024-01-16"))
	store := newMemoryStore(a, b)
	store.pendingFn = func(id uuid.UUID) error {
		if id == a.ID {
			return errors.New("connection reset")
		}
		return nil
	}
	sender := &mockSender{}

	m := newDispatcher(store, sender).Dispatch(context.Background(), []files.File{a, b})

	f, found := m.Failures[a.ID]
	if !found || f.Reason != notifications.ReasonStoreUnavailable {
		t.Errorf("failure for a = %+v, want %s", f, notifications.ReasonStoreUnavailable)
	}
	if got := m.NotifiedIDs(); len(got) != 1 || got[0] != b.ID {
		t.Errorf("notified = %v, want [%s]", got, b.ID)
	}
	if sender.count() != 1 {
		t.Errorf("sent %d emails, want 1", sender.count())
	}
}

func TestDispatchPerFileFailures(t *testing.T) {
	unresolved := record("00000000-0000-0000-0000-000000000001", uuid.New(), date("2024-01-10"))
	sendFails := record("00000000-0000-0000-0000-000000000002", ownerB, date("2024-01-11"))
	persistFails := record("00000000-0000-0000-0000-000000000003", ownerA, date("2024-01-12"))
	ok := record("00000000-0000-0000-0000-000000000004", ownerA, date("2024-01-13"))

	store := newMemoryStore(unresolved, sendFails, persistFails, ok)
	store.markFn = func(ctx context.Context, id uuid.UUID) error {
		if id == persistFails.ID {
			return errors.New("write timeout")
		}
		return nil
	}
	sender := &mockSender{sendFn: func(ctx context.Context, msg mail.Message) error {
		if msg.To == "b@example.com" {
			return errors.New("smtp 451")
		}
		return nil
	}}

	m := newDispatcher(store, sender).Dispatch(
		context.Background(),
		[]files.File{unresolved, sendFails, persistFails, ok},
	)

	tests := []struct {
		name   string
		id     uuid.UUID
		reason notifications.Reason
	}{
		{"recipient unresolved", unresolved.ID, notifications.ReasonRecipientUnresolved},
		{"send failed", sendFails.ID, notifications.ReasonSendFailed},
		{"persist after send failed", persistFails.ID, notifications.ReasonPersistAfterSendFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, found := m.Failures[tt.id]
			if !found {
				t.Fatalf("no failure recorded for %s", tt.id)
			}
			if f.Reason != tt.reason {
				t.Errorf("reason = %s, want %s", f.Reason, tt.reason)
			}
			if store.notified(tt.id) {
				t.Error("failed file marked notified")
			}
		})
	}

	if got := m.NotifiedIDs(); len(got) != 1 || got[0] != ok.ID {
		t.Errorf("notified = %v, want [%s]", got, ok.ID)
	}
	if got := m.Inconsistent(); len(got) != 1 || got[0] != persistFails.ID {
		t.Errorf("inconsistent = %v, want [%s]", got, persistFails.ID)
	}
	if sender.count() != 2 {
		t.Errorf("accepted sends = %d, want 2", sender.count())
	}
}

func TestDispatchCancellationAtBoundary(t *testing.T) {
	first := record("00000000-0000-0000-0000-000000000001", ownerA, date("2024-01-10"))
	second := record("00000000-0000-0000-0000-000000000002", ownerA, date("2024-01-11"))
	store := newMemoryStore(first, second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sender := &mockSender{sendFn: func(context.Context, mail.Message) error {
		cancel()
		return nil
	}}

	var persistCtxErr error
	store.markFn = func(ctx context.Context, id uuid.UUID) error {
		persistCtxErr = ctx.Err()
		return nil
	}

	m := newDispatcher(store, sender).Dispatch(ctx, []files.File{first, second})

	if !m.Cancelled {
		t.Error("manifest not marked cancelled")
	}
	if persistCtxErr != nil {
		t.Errorf("persist saw cancelled context: %v", persistCtxErr)
	}
	if !store.notified(first.ID) {
		t.Error("in-flight file not marked after its send succeeded")
	}
	if store.notified(second.ID) {
		t.Error("file after the cancellation boundary was processed")
	}
	if _, failed := m.Failures[second.ID]; failed {
		t.Error("unprocessed file reported as a failure")
	}
	if sender.count() != 1 {
		t.Errorf("sent %d emails, want 1", sender.count())
	}
}

func TestDispatchEmpty(t *testing.T) {
	m := newDispatcher(newMemoryStore(), &mockSender{}).Dispatch(context.Background(), nil)

	if len(m.Notified) != 0 || len(m.Failures) != 0 || m.Cancelled {
		t.Errorf("manifest = %+v, want empty", m)
	}
	if m.Emails() == nil {
		t.Error("Emails() returned nil, want empty slice")
	}
}
