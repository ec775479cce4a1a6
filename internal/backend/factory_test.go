package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendsmart/internal/config"
	"spendsmart/internal/records"
	"spendsmart/internal/storage"
	"spendsmart/internal/storage/file"
	"spendsmart/internal/storage/memory"
)

func TestBackendType_IsValid(t *testing.T) {
	for _, bt := range GetBackendTypes() {
		if !bt.IsValid() {
			t.Errorf("%s should be valid", bt)
		}
	}
	if BackendType("sheets").IsValid() {
		t.Error("sheets should not be valid")
	}
	if got := GetBackendTypeStrings(); len(got) != 3 || got[0] != "file" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:          "file",
		DataDir:              "/tmp/x",
		StorageKey:           "k",
		EncryptionPassphrase: "p",
	})
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != FileBackend || cfg.DataDirectory != "/tmp/x" || cfg.Passphrase != "p" || cfg.StorageKey != "k" {
		t.Errorf("unexpected backend config: %+v", cfg)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "nope"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"file", Config{Type: FileBackend, DataDirectory: "d"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite with passphrase", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db", Passphrase: "p"}, true},
		{"memory", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func roundTrip(t *testing.T, blob storage.BlobStore) {
	t.Helper()
	ctx := context.Background()
	if err := blob.Put(ctx, "k", []byte("[]")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := blob.Get(ctx, "k")
	if err != nil || string(got) != "[]" {
		t.Fatalf("Get() = %q, %v", got, err)
	}
}

func TestCreateBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	factory := NewFactory(nil, WithFileOptions(file.WithWorkFactor(10)))

	t.Run("file", func(t *testing.T) {
		res, err := factory.CreateBackend(ctx, Config{Type: FileBackend, DataDirectory: filepath.Join(dir, "plain")})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Cleanup()
		if _, ok := res.Blob.(*file.Store); !ok {
			t.Fatalf("expected *file.Store, got %T", res.Blob)
		}
		if err := res.Ready(ctx); err != nil {
			t.Fatalf("Ready() error = %v", err)
		}
		roundTrip(t, res.Blob)
	})

	t.Run("encrypted file locks on cleanup", func(t *testing.T) {
		res, err := factory.CreateBackend(ctx, Config{
			Type:          FileBackend,
			DataDirectory: filepath.Join(dir, "secret"),
			Passphrase:    "correct horse",
		})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		roundTrip(t, res.Blob)
		res.Cleanup()
		if err := res.Ready(ctx); !errors.Is(err, file.ErrLocked) {
			t.Fatalf("Ready() after cleanup = %v, want ErrLocked", err)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		res, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "test.db")})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		defer res.Cleanup()
		if err := res.Ready(ctx); err != nil {
			t.Fatalf("Ready() error = %v", err)
		}
		roundTrip(t, res.Blob)
	})

	t.Run("memory seeds from data directory", func(t *testing.T) {
		seedDir := filepath.Join(dir, "seed")
		if err := os.MkdirAll(seedDir, 0o755); err != nil {
			t.Fatal(err)
		}
		seed := `[{"id":"a","amount":5,"category":"Food","note":"","date":"2024-01-05"}]`
		if err := os.WriteFile(filepath.Join(seedDir, memory.SeedFile), []byte(seed), 0o644); err != nil {
			t.Fatal(err)
		}

		res, err := factory.CreateBackend(ctx, Config{Type: MemoryBackend, DataDirectory: seedDir})
		if err != nil {
			t.Fatalf("CreateBackend() error = %v", err)
		}
		got, err := res.Blob.Get(ctx, records.DefaultKey)
		if err != nil || string(got) != seed {
			t.Fatalf("seeded value = %q, %v", got, err)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		if _, err := factory.CreateBackend(ctx, Config{Type: SQLiteBackend}); err == nil {
			t.Fatal("expected validation error")
		}
	})
}
