package backend

import (
	"context"
	"fmt"

	"spendsmart/internal/log"
	"spendsmart/internal/records"
	"spendsmart/internal/storage/file"
	"spendsmart/internal/storage/memory"
	"spendsmart/internal/storage/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger   *log.Logger
	fileOpts []file.Option
}

// FactoryOption configures a DefaultFactory.
type FactoryOption func(*DefaultFactory)

// WithFileOptions passes options through to the file backend.
func WithFileOptions(opts ...file.Option) FactoryOption {
	return func(f *DefaultFactory) { f.fileOpts = append(f.fileOpts, opts...) }
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger, opts ...FactoryOption) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	f := &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case FileBackend:
		return f.createFileBackend(ctx, config)
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := file.New(config.DataDirectory, config.Passphrase, f.fileOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open file backend: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized file backend",
		log.FieldBackend, FileBackend,
		"data_directory", config.DataDirectory,
		"encrypted", store.IsEncrypted())

	return &BackendResult{
		Blob: store,
		Cleanup: func() error {
			store.Lock()
			return nil
		},
		Ready: func(context.Context) error {
			if !store.IsUnlocked() {
				return file.ErrLocked
			}
			return nil
		},
	}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend",
		log.FieldBackend, SQLiteBackend,
		"db_path", config.SQLiteDBPath)

	return &BackendResult{
		Blob:    repo,
		Cleanup: repo.Close,
		Ready:   repo.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	key := config.StorageKey
	if key == "" {
		key = records.DefaultKey
	}

	store := memory.NewFromFiles(dataDir, key)

	f.logger.InfoContext(ctx, "Initialized memory backend",
		log.FieldBackend, MemoryBackend,
		"data_directory", dataDir)

	return &BackendResult{
		Blob:    store,
		Cleanup: func() error { return nil },
		Ready:   func(context.Context) error { return nil },
	}, nil
}
