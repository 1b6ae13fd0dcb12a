package files

import (
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/query"
	"github.com/JaimeStill/tickler/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "files", "f").
	Project("id", "ID").
	Project("owner_id", "OwnerID").
	Project("name", "Name").
	Project("location_url", "LocationURL").
	Project("storage_key", "StorageKey").
	Project("effective_date", "EffectiveDate").
	Project("expiry_date", "ExpiryDate").
	Project("notified", "Notified").
	Project("notified_at", "NotifiedAt").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// returning lists the columns of projection, unqualified, for RETURNING clauses.
const returning = `id, owner_id, name, location_url, storage_key, effective_date,
	expiry_date, notified, notified_at, created_at, updated_at`

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

var expirySort = []query.SortField{
	{Field: "ExpiryDate"},
	{Field: "ID"},
}

var errMapping = repository.Mapping{
	NotFound:  ErrNotFound,
	Reference: ErrOwnerNotFound,
}

// Filters contains optional filtering criteria for file queries. Nil fields
// are ignored. Name uses case-insensitive contains matching; the expiry bounds
// are inclusive.
type Filters struct {
	OwnerID        *uuid.UUID     `json:"owner_id,omitempty"`
	Name           *string        `json:"name,omitempty"`
	Notified       *bool          `json:"notified,omitempty"`
	ExpiringAfter  *calendar.Date `json:"expiring_after,omitempty"`
	ExpiringBefore *calendar.Date `json:"expiring_before,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("OwnerID", f.OwnerID).
		WhereContains("Name", f.Name).
		WhereEquals("Notified", f.Notified).
		WhereOnOrAfter("ExpiryDate", f.ExpiringAfter).
		WhereOnOrBefore("ExpiryDate", f.ExpiringBefore)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// Unparseable values are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("owner_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			f.OwnerID = &id
		}
	}

	if v := values.Get("name"); v != "" {
		f.Name = &v
	}

	if v := values.Get("notified"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Notified = &b
		}
	}

	if v := values.Get("expiring_after"); v != "" {
		if d, err := calendar.ParseDate(v); err == nil {
			f.ExpiringAfter = &d
		}
	}

	if v := values.Get("expiring_before"); v != "" {
		if d, err := calendar.ParseDate(v); err == nil {
			f.ExpiringBefore = &d
		}
	}

	return f
}

func scanFile(s repository.Scanner) (File, error) {
	var f File
	err := s.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Name,
		&f.LocationURL,
		&f.StorageKey,
		&f.EffectiveDate,
		&f.ExpiryDate,
		&f.Notified,
		&f.NotifiedAt,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	return f, err
}
