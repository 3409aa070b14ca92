package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://carmate@localhost/carmate")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("DOWNLOAD_TOKEN_SECRET", "download")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_MODE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != "development" {
		t.Errorf("environment: want=development got=%q", cfg.Environment)
	}
	if cfg.HTTP.Port != 7090 {
		t.Errorf("port: want=7090 got=%d", cfg.HTTP.Port)
	}
	if cfg.Storage.Mode != StorageModeLocal {
		t.Errorf("storage mode: want=%q got=%q", StorageModeLocal, cfg.Storage.Mode)
	}
	if cfg.Auth.DownloadTokenTTL != 7*24*time.Hour {
		t.Errorf("download ttl: want=168h got=%s", cfg.Auth.DownloadTokenTTL)
	}
	if cfg.Upload.MaxDocumentBytes != 20<<20 {
		t.Errorf("max document bytes: got=%d", cfg.Upload.MaxDocumentBytes)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing dsn",
			env:     map[string]string{"DB_DSN": ""},
			wantErr: "DB_DSN",
		},
		{
			name:    "missing download secret",
			env:     map[string]string{"DOWNLOAD_TOKEN_SECRET": ""},
			wantErr: "DOWNLOAD_TOKEN_SECRET",
		},
		{
			name:    "unknown storage mode",
			env:     map[string]string{"STORAGE_MODE": "cloudinary"},
			wantErr: "invalid STORAGE_MODE",
		},
		{
			name:    "minio without bucket",
			env:     map[string]string{"STORAGE_MODE": "minio", "MINIO_ENDPOINT": "localhost:9000", "MINIO_BUCKET": ""},
			wantErr: "MINIO_BUCKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error: want substring %q got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" http://a.test , ,http://b.test ")
	if len(got) != 2 || got[0] != "http://a.test" || got[1] != "http://b.test" {
		t.Fatalf("parseList: got=%v", got)
	}
	if parseList("  ") != nil {
		t.Fatalf("parseList on blank input should be nil")
	}
}
