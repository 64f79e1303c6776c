package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Storage is the backend a Cache writes through. Production uses FileStorage;
// tests inject MemoryStorage so nothing touches the filesystem.
type Storage interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
	Delete(key string) error
	Keys() ([]string, error)
}

var (
	ErrNotFound      = errors.New("cache: key not found")
	ErrQuotaExceeded = errors.New("cache: storage quota exceeded")
)

type MemoryStorage struct {
	mu       sync.Mutex
	entries  map[string][]byte
	maxBytes int
}

// NewMemoryStorage creates an in-memory backend. maxBytes <= 0 means no quota.
func NewMemoryStorage(maxBytes int) *MemoryStorage {
	return &MemoryStorage{
		entries:  make(map[string][]byte),
		maxBytes: maxBytes,
	}
}

func (s *MemoryStorage) Read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemoryStorage) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBytes > 0 {
		total := len(data)
		for k, v := range s.entries {
			if k != key {
				total += len(v)
			}
		}
		if total > s.maxBytes {
			return ErrQuotaExceeded
		}
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.entries[key] = cp
	return nil
}

func (s *MemoryStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *MemoryStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// FileStorage keeps one JSON file per key under a directory.
type FileStorage struct {
	mu       sync.Mutex
	dir      string
	maxBytes int64
}

// NewFileStorage creates the directory if needed. maxBytes <= 0 means no quota.
func NewFileStorage(dir string, maxBytes int64) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir, maxBytes: maxBytes}, nil
}

func (s *FileStorage) path(key string) string {
	// Keys embed user emails; strip anything the filesystem would choke on.
	safe := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
	return filepath.Join(s.dir, safe+".json")
}

func (s *FileStorage) Read(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *FileStorage) Write(key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxBytes > 0 {
		total := int64(len(data))
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return err
		}
		target := filepath.Base(s.path(key))
		for _, e := range entries {
			if e.IsDir() || e.Name() == target {
				continue
			}
			if info, err := e.Info(); err == nil {
				total += info.Size()
			}
		}
		if total > s.maxBytes {
			return ErrQuotaExceeded
		}
	}
	return os.WriteFile(s.path(key), data, 0600)
}

func (s *FileStorage) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStorage) Keys() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), ".json"))
	}
	return keys, nil
}
