package files

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/pkg/calendar"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "lease.pdf", "lease.pdf"},
		{"spaces escaped", "my lease.pdf", "my%20lease.pdf"},
		{"unix path stripped", "../../etc/passwd", "passwd"},
		{"windows path stripped", `C:\Users\me\lease.pdf`, "lease.pdf"},
		{"dot dot", "..", "file"},
		{"blank", "   ", "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuildStorageKey(t *testing.T) {
	owner := uuid.MustParse("0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01")
	id := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

	got := buildStorageKey(owner, id, "lease.pdf")
	want := "files/0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01/550e8400-e29b-41d4-a716-446655440000/lease.pdf"
	if got != want {
		t.Errorf("buildStorageKey() = %q, want %q", got, want)
	}
}

func TestValidateCreate(t *testing.T) {
	owner := uuid.New()
	jan := calendar.MustParse("2024-01-01")
	feb := calendar.MustParse("2024-02-01")

	tests := []struct {
		name      string
		owner     uuid.UUID
		fileName  string
		effective *calendar.Date
		expiry    *calendar.Date
		want      error
	}{
		{"valid", owner, "lease.pdf", &jan, &feb, nil},
		{"no dates", owner, "lease.pdf", nil, nil, nil},
		{"same day", owner, "lease.pdf", &jan, &jan, nil},
		{"missing owner", uuid.Nil, "lease.pdf", nil, nil, ErrInvalidFile},
		{"missing name", owner, " ", nil, nil, ErrInvalidFile},
		{"reversed dates", owner, "lease.pdf", &feb, &jan, ErrInvalidDates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreate(tt.owner, tt.fileName, tt.effective, tt.expiry)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	owner := uuid.New()
	values := url.Values{
		"owner_id":        {owner.String()},
		"name":            {"lease"},
		"notified":        {"true"},
		"expiring_after":  {"2024-01-01"},
		"expiring_before": {"not-a-date"},
	}

	f := FiltersFromQuery(values)

	if f.OwnerID == nil || *f.OwnerID != owner {
		t.Errorf("owner: got %v", f.OwnerID)
	}
	if f.Name == nil || *f.Name != "lease" {
		t.Errorf("name: got %v", f.Name)
	}
	if f.Notified == nil || !*f.Notified {
		t.Errorf("notified: got %v", f.Notified)
	}
	if f.ExpiringAfter == nil || f.ExpiringAfter.String() != "2024-01-01" {
		t.Errorf("expiring_after: got %v", f.ExpiringAfter)
	}
	if f.ExpiringBefore != nil {
		t.Errorf("expiring_before: got %v, want nil for unparseable value", f.ExpiringBefore)
	}
}
