package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"filippo.io/age"

	"spendsmart/internal/storage"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// markerFile indicates encryption is enabled
	markerFile = ".encrypted"

	// verifyFile is used to validate the passphrase
	verifyFile = ".encryption-verify"

	// verifyMagic is the expected content in the verify file
	verifyMagic = `{"magic":"spendsmart-encryption-verify","version":1}`

	blobExt = ".json"
)

var (
	// ErrLocked is returned when the data directory is encrypted and no
	// passphrase was supplied.
	ErrLocked = errors.New("storage is encrypted and locked")

	// ErrWrongPassphrase is returned when the passphrase does not open
	// the verification file.
	ErrWrongPassphrase = errors.New("incorrect passphrase")

	ErrInvalidKey = errors.New("invalid storage key")

	validKey = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// Store keeps one file per key in a directory, optionally age-encrypted
// with a scrypt passphrase.
type Store struct {
	baseDir    string
	workFactor int
	encrypted  bool
	identity   *age.ScryptIdentity
	recipient  *age.ScryptRecipient
	mu         sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithWorkFactor sets the scrypt work factor (log2 N) for new encryptions.
func WithWorkFactor(logN int) Option {
	return func(s *Store) { s.workFactor = logN }
}

// New opens baseDir. An encrypted directory is unlocked with passphrase;
// a plain directory becomes encrypted when a passphrase is given.
func New(baseDir, passphrase string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	s := &Store{baseDir: baseDir}
	for _, opt := range opts {
		opt(s)
	}
	s.encrypted = IsEncryptedDir(baseDir)

	switch {
	case s.encrypted && passphrase == "":
		return nil, ErrLocked
	case s.encrypted:
		if err := s.Unlock(passphrase); err != nil {
			return nil, err
		}
	case passphrase != "":
		if err := s.EnableEncryption(passphrase); err != nil {
			return nil, fmt.Errorf("enable encryption: %w", err)
		}
	}

	return s, nil
}

// IsEncryptedDir reports whether baseDir carries the encryption marker.
func IsEncryptedDir(baseDir string) bool {
	_, err := os.Stat(filepath.Join(baseDir, markerFile))
	return err == nil
}

// BaseDir returns the base directory
func (s *Store) BaseDir() string {
	return s.baseDir
}

// IsEncrypted returns true if the data directory is encrypted
func (s *Store) IsEncrypted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encrypted
}

// IsUnlocked returns true if the store can read and write its blobs
func (s *Store) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.encrypted || s.identity != nil
}

// Unlock verifies the passphrase against the verification file.
func (s *Store) Unlock(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.encrypted {
		return nil
	}

	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	encrypted, err := os.ReadFile(filepath.Join(s.baseDir, verifyFile))
	if err != nil {
		return fmt.Errorf("read verification file: %w", err)
	}

	decrypted, err := decryptData(encrypted, identity)
	if err != nil || string(decrypted) != verifyMagic {
		return ErrWrongPassphrase
	}

	recipient, err := s.newRecipient(passphrase)
	if err != nil {
		return err
	}
	s.identity = identity
	s.recipient = recipient
	return nil
}

// Lock clears the encryption key from memory
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.recipient = nil
}

// EnableEncryption encrypts every stored blob and writes the marker and
// verification files. The marker is written last so a failure part way
// leaves a readable directory.
func (s *Store) EnableEncryption(passphrase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.encrypted {
		return nil
	}
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	recipient, err := s.newRecipient(passphrase)
	if err != nil {
		return err
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("create identity: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(s.baseDir, "*"+blobExt))
	if err != nil {
		return fmt.Errorf("list blobs: %w", err)
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		if isAgeEncrypted(data) {
			continue
		}
		enc, err := encryptData(data, recipient)
		if err != nil {
			return fmt.Errorf("encrypt %s: %w", filepath.Base(path), err)
		}
		if err := atomicWrite(path, enc, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}

	verify, err := encryptData([]byte(verifyMagic), recipient)
	if err != nil {
		return fmt.Errorf("encrypt verification file: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.baseDir, verifyFile), verify, 0o600); err != nil {
		return fmt.Errorf("write verification file: %w", err)
	}
	if err := atomicWrite(filepath.Join(s.baseDir, markerFile), []byte("age\n"), 0o600); err != nil {
		return fmt.Errorf("write marker file: %w", err)
	}

	s.encrypted = true
	s.identity = identity
	s.recipient = recipient
	return nil
}

// Get reads and, when needed, decrypts the blob stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, ErrLocked
		}
		return decryptData(data, s.identity)
	}
	return data, nil
}

// Put encrypts when enabled and replaces the blob atomically.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.encrypted {
		if s.recipient == nil {
			return ErrLocked
		}
		value, err = encryptData(value, s.recipient)
		if err != nil {
			return fmt.Errorf("encrypt blob: %w", err)
		}
	}
	return atomicWrite(path, value, 0o600)
}

func (s *Store) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.baseDir, key+blobExt), nil
}

func (s *Store) newRecipient(passphrase string) (*age.ScryptRecipient, error) {
	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("create recipient: %w", err)
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}
	return recipient, nil
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}
