package storage_test

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/JaimeStill/tickler/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=ticklerstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/ticklerstore;"

func newAzurite(t *testing.T) storage.System {
	t.Helper()
	sys, err := storage.New(&storage.Config{
		ContainerName:    "files",
		ConnectionString: azuriteConnString,
	}, slog.Default())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return sys
}

func TestNewInvalidConnectionString(t *testing.T) {
	_, err := storage.New(&storage.Config{
		ContainerName:    "files",
		ConnectionString: "not-a-connection-string",
	}, slog.Default())
	if err == nil {
		t.Fatal("expected error for invalid connection string, got nil")
	}
}

func TestURL(t *testing.T) {
	sys := newAzurite(t)

	got, err := sys.URL("owner/file/lease.pdf")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if !strings.HasPrefix(got, "http://127.0.0.1:10000/ticklerstore/files/") {
		t.Errorf("URL() = %s, want container-scoped azurite URL", got)
	}
	if !strings.HasSuffix(got, "lease.pdf") {
		t.Errorf("URL() = %s, want blob name suffix", got)
	}

	if _, err := sys.URL("../escape"); !errors.Is(err, storage.ErrInvalidKey) {
		t.Errorf("URL(../escape) error = %v, want ErrInvalidKey", err)
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key  string
		want error
	}{
		{"", storage.ErrEmptyKey},
		{"/absolute", storage.ErrInvalidKey},
		{"a/../b", storage.ErrInvalidKey},
		{"..", storage.ErrInvalidKey},
		{"owner/id/lease..v2.pdf", nil},
		{"owner/id/lease.pdf", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := storage.ValidateKey(tt.key); !errors.Is(got, tt.want) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrInvalidKey, http.StatusBadRequest},
		{fmt.Errorf("%w: upload blob a: %w", storage.ErrUnavailable, errors.New("dial")), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestConfigFinalize(t *testing.T) {
	t.Run("defaults and validation", func(t *testing.T) {
		cfg := &storage.Config{ConnectionString: azuriteConnString}
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.ContainerName != "files" {
			t.Errorf("container_name: got %s, want files", cfg.ContainerName)
		}
	})

	t.Run("missing endpoint", func(t *testing.T) {
		cfg := &storage.Config{}
		if err := cfg.Finalize(nil); err == nil {
			t.Error("expected error without connection_string or account_url")
		}
	})

	t.Run("env overrides", func(t *testing.T) {
		t.Setenv("TEST_STORAGE_ACCOUNT_URL", "https://acct.blob.core.windows.net/")
		cfg := &storage.Config{}
		err := cfg.Finalize(&storage.Env{AccountURL: "TEST_STORAGE_ACCOUNT_URL"})
		if err != nil {
			t.Fatalf("Finalize() error = %v", err)
		}
		if cfg.AccountURL != "https://acct.blob.core.windows.net/" {
			t.Errorf("account_url: got %s", cfg.AccountURL)
		}
	})

	t.Run("merge", func(t *testing.T) {
		cfg := &storage.Config{ContainerName: "files", ConnectionString: "base"}
		cfg.Merge(&storage.Config{ContainerName: "staging"})
		if cfg.ContainerName != "staging" || cfg.ConnectionString != "base" {
			t.Errorf("merge: got %+v", cfg)
		}
	})
}
