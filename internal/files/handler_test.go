package files_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/tickler/internal/files"
	"github.com/JaimeStill/tickler/pkg/calendar"
	"github.com/JaimeStill/tickler/pkg/pagination"
	"github.com/JaimeStill/tickler/pkg/routes"
)

type mockSystem struct {
	listFn     func(ctx context.Context, page pagination.PageRequest, filters files.Filters) (*pagination.PageResult[files.File], error)
	findFn     func(ctx context.Context, id uuid.UUID) (*files.File, error)
	createFn   func(ctx context.Context, cmd files.CreateCommand) (*files.File, error)
	uploadFn   func(ctx context.Context, cmd files.UploadCommand) (*files.File, error)
	updateFn   func(ctx context.Context, id uuid.UUID, cmd files.UpdateCommand) (*files.File, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	expiringFn func(ctx context.Context, start, end calendar.Date) ([]files.File, error)
	markFn     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler(maxUploadSize int64) *files.Handler {
	return files.NewHandler(m, discard(), pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}, maxUploadSize)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters files.Filters) (*pagination.PageResult[files.File], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*files.File, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, cmd files.CreateCommand) (*files.File, error) {
	return m.createFn(ctx, cmd)
}

func (m *mockSystem) Upload(ctx context.Context, cmd files.UploadCommand) (*files.File, error) {
	return m.uploadFn(ctx, cmd)
}

func (m *mockSystem) UpdateDates(ctx context.Context, id uuid.UUID, cmd files.UpdateCommand) (*files.File, error) {
	return m.updateFn(ctx, id, cmd)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) QueryExpiringUnnotified(ctx context.Context, start, end calendar.Date) ([]files.File, error) {
	return m.expiringFn(ctx, start, end)
}

func (m *mockSystem) Pending(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, nil
}

func (m *mockSystem) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return m.markFn(ctx, id)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupMux(sys *mockSystem, maxUploadSize int64) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, sys.Handler(maxUploadSize).Routes())
	return mux
}

func ptr[T any](v T) *T { return &v }

func sampleFile() files.File {
	return files.File{
		ID:          uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		OwnerID:     uuid.MustParse("0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01"),
		Name:        "lease.pdf",
		LocationURL: "https://blob.example.com/files/lease.pdf",
		ExpiryDate:  ptr(calendar.MustParse("2024-02-01")),
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	var gotPage pagination.PageRequest
	var gotFilters files.Filters

	sys := &mockSystem{
		listFn: func(ctx context.Context, page pagination.PageRequest, filters files.Filters) (*pagination.PageResult[files.File], error) {
			gotPage, gotFilters = page, filters
			result := pagination.NewPageResult([]files.File{sampleFile()}, 1, page)
			return &result, nil
		},
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/files?page=2&page_size=500&notified=false&expiring_before=2024-03-01&sort=-ExpiryDate", nil)
	setupMux(sys, 1<<20).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if gotPage.Page != 2 || gotPage.PageSize != 100 {
		t.Errorf("page: got %d/%d, want 2/100", gotPage.Page, gotPage.PageSize)
	}
	if gotFilters.Notified == nil || *gotFilters.Notified {
		t.Errorf("notified filter: got %v", gotFilters.Notified)
	}
	if gotFilters.ExpiringBefore == nil || gotFilters.ExpiringBefore.String() != "2024-03-01" {
		t.Errorf("expiring_before filter: got %v", gotFilters.ExpiringBefore)
	}
	if len(gotPage.Sort) != 1 || !gotPage.Sort[0].Descending {
		t.Errorf("sort: got %+v", gotPage.Sort)
	}

	var result pagination.PageResult[files.File]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Data) != 1 || result.Data[0].ExpiryDate.String() != "2024-02-01" {
		t.Errorf("data: got %+v", result.Data)
	}
}

func TestHandlerSearch(t *testing.T) {
	var gotFilters files.Filters
	sys := &mockSystem{
		listFn: func(ctx context.Context, page pagination.PageRequest, filters files.Filters) (*pagination.PageResult[files.File], error) {
			gotFilters = filters
			result := pagination.NewPageResult[files.File](nil, 0, page)
			return &result, nil
		},
	}
	mux := setupMux(sys, 1<<20)

	body := `{"page":1,"page_size":10,"name":"lease","expiring_after":"2024-01-15"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/files/search", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if gotFilters.Name == nil || *gotFilters.Name != "lease" {
		t.Errorf("name filter: got %v", gotFilters.Name)
	}
	if gotFilters.ExpiringAfter == nil || gotFilters.ExpiringAfter.String() != "2024-01-15" {
		t.Errorf("expiring_after filter: got %v", gotFilters.ExpiringAfter)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/files/search", strings.NewReader(`{"expiring_after":"01/15/2024"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date status: got %d, want 400", rec.Code)
	}
}

func TestHandlerFind(t *testing.T) {
	sample := sampleFile()
	sys := &mockSystem{
		findFn: func(ctx context.Context, id uuid.UUID) (*files.File, error) {
			if id != sample.ID {
				return nil, files.ErrNotFound
			}
			return &sample, nil
		},
	}
	mux := setupMux(sys, 1<<20)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"found", "/files/" + sample.ID.String(), http.StatusOK},
		{"missing", "/files/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/files/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
	}{
		{
			"created",
			`{"owner_id":"0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01","name":"lease.pdf","location_url":"https://x/lease.pdf","expiry_date":"2024-02-01"}`,
			nil, http.StatusCreated,
		},
		{"unknown owner", `{"owner_id":"0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01","name":"a","location_url":"u"}`, files.ErrOwnerNotFound, http.StatusBadRequest},
		{"dates reversed", `{"name":"a","effective_date":"2024-02-01","expiry_date":"2024-01-01"}`, files.ErrInvalidDates, http.StatusBadRequest},
		{"unknown field", `{"name":"a","notified":true}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sys := &mockSystem{
				createFn: func(ctx context.Context, cmd files.CreateCommand) (*files.File, error) {
					if tt.createErr != nil {
						return nil, tt.createErr
					}
					f := sampleFile()
					f.Name = cmd.Name
					f.ExpiryDate = cmd.ExpiryDate
					return &f, nil
				},
			}

			rec := httptest.NewRecorder()
			setupMux(sys, 1<<20).ServeHTTP(rec, httptest.NewRequest("POST", "/files", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(content)
	}
	w.Close()

	return &buf, w.FormDataContentType()
}

func TestHandlerUpload(t *testing.T) {
	owner := "0b5e1f53-8f3e-4bb9-9a57-7f6f1c2d9e01"
	pdf := []byte("%PDF-1.4 fake pdf content")

	tests := []struct {
		name       string
		fields     map[string]string
		filename   string
		wantStatus int
	}{
		{"uploaded", map[string]string{"owner_id": owner, "expiry_date": "2024-02-01"}, "lease.pdf", http.StatusCreated},
		{"missing owner", map[string]string{"expiry_date": "2024-02-01"}, "lease.pdf", http.StatusBadRequest},
		{"bad date", map[string]string{"owner_id": owner, "expiry_date": "Feb 1"}, "lease.pdf", http.StatusBadRequest},
		{"missing file", map[string]string{"owner_id": owner}, "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got files.UploadCommand
			sys := &mockSystem{
				uploadFn: func(ctx context.Context, cmd files.UploadCommand) (*files.File, error) {
					got = cmd
					f := sampleFile()
					return &f, nil
				},
			}

			body, contentType := multipartBody(t, tt.fields, tt.filename, pdf)
			req := httptest.NewRequest("POST", "/files/upload", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			setupMux(sys, 1<<20).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}
			if got.Name != "lease.pdf" {
				t.Errorf("name: got %q, want filename fallback", got.Name)
			}
			if got.ContentType != "application/pdf" {
				t.Errorf("content type: got %q, want sniffed application/pdf", got.ContentType)
			}
			if got.ExpiryDate == nil || got.ExpiryDate.String() != "2024-02-01" {
				t.Errorf("expiry: got %v", got.ExpiryDate)
			}
			if got.EffectiveDate != nil {
				t.Errorf("effective: got %v, want nil", got.EffectiveDate)
			}
		})
	}
}

func TestHandlerUploadTooLarge(t *testing.T) {
	sys := &mockSystem{
		uploadFn: func(ctx context.Context, cmd files.UploadCommand) (*files.File, error) {
			t.Fatal("upload should not be called")
			return nil, nil
		},
	}

	body, contentType := multipartBody(t, map[string]string{"owner_id": uuid.NewString()}, "big.bin", bytes.Repeat([]byte("x"), 4096))
	req := httptest.NewRequest("POST", "/files/upload", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	setupMux(sys, 1024).ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status: got %d, want 413", rec.Code)
	}
}

func TestHandlerUpdateDates(t *testing.T) {
	sample := sampleFile()

	var got files.UpdateCommand
	sys := &mockSystem{
		updateFn: func(ctx context.Context, id uuid.UUID, cmd files.UpdateCommand) (*files.File, error) {
			if id != sample.ID {
				return nil, files.ErrNotFound
			}
			got = cmd
			f := sample
			f.EffectiveDate, f.ExpiryDate = cmd.EffectiveDate, cmd.ExpiryDate
			return &f, nil
		},
	}
	mux := setupMux(sys, 1<<20)

	rec := httptest.NewRecorder()
	body := `{"effective_date":"2024-01-01","expiry_date":null}`
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/files/"+sample.ID.String(), strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if got.EffectiveDate == nil || got.ExpiryDate != nil {
		t.Errorf("command: got %+v, want effective set and expiry cleared", got)
	}

	rec = httptest.NewRecorder()
	omitted := `{"expiry_date":"2024-06-01"}`
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/files/"+sample.ID.String(), strings.NewReader(omitted)))
	if rec.Code != http.StatusOK {
		t.Fatalf("omitted status: got %d, want 200", rec.Code)
	}
	if got.EffectiveDate != nil || got.ExpiryDate == nil {
		t.Errorf("command: got %+v, want omitted effective date cleared", got)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("PUT", "/files/"+uuid.NewString(), strings.NewReader(body)))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status: got %d, want 404", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	sample := sampleFile()
	sys := &mockSystem{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			if id != sample.ID {
				return files.ErrNotFound
			}
			return nil
		},
	}
	mux := setupMux(sys, 1<<20)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/files/"+sample.ID.String(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/files/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing status: got %d, want 404", rec.Code)
	}
}
