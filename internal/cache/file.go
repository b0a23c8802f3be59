package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	appLog "freerooms/internal/log"
)

// Stamp table file names used by the two caches sharing one directory.
const (
	ResourceStampFile    = "update_times.json"
	CombinationStampFile = "cal_update_times.json"
)

// FileStore keeps each payload in <dir>/<key>.ics and all stamps in one JSON
// object (key -> unix seconds). Stamps are truncated to the second, so an
// entry written mid-second expires up to a second early. The stamp table is
// rewritten as a whole; mu serializes writers in this process only, so
// another process writing the same table can still drop an update, which
// only causes a refetch.
type FileStore struct {
	dir       string
	stampFile string
	mu        sync.Mutex
}

// NewFileStore creates a store rooted at dir. Nothing touches the disk until
// Seed or a write.
func NewFileStore(dir, stampFile string) *FileStore {
	if dir == "" {
		dir = "./cache"
	}
	return &FileStore{dir: dir, stampFile: stampFile}
}

func (s *FileStore) payloadPath(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(s.dir, key+".ics"), nil
}

func (s *FileStore) stampPath() string {
	return filepath.Join(s.dir, s.stampFile)
}

func (s *FileStore) ReadPayload(key string) (string, error) {
	p, err := s.payloadPath(key)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *FileStore) WritePayload(key, payload string) error {
	p, err := s.payloadPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	return writeFileAtomic(p, []byte(payload))
}

func (s *FileStore) ReadStamp(key string) (time.Time, error) {
	table, err := s.loadStamps()
	if err != nil {
		return time.Time{}, err
	}
	sec, ok := table[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return time.Unix(sec, 0).UTC(), nil
}

func (s *FileStore) WriteStamp(key string, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.loadStamps()
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			appLog.Warn("stamp table unreadable; rebuilding", "path", s.stampPath(), "reason", err.Error())
		}
		table = make(map[string]int64)
	}
	table[key] = t.Unix()
	return s.saveStamps(table)
}

func (s *FileStore) Seed(keys []string) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.loadStamps()
	switch {
	case err == nil:
		appLog.Info("cache stamp table already exists", "path", s.stampPath())
	case errors.Is(err, fs.ErrNotExist):
		table = make(map[string]int64)
	default:
		return err
	}

	for _, k := range keys {
		if _, ok := table[k]; !ok {
			table[k] = 0
		}
	}
	return s.saveStamps(table)
}

func (s *FileStore) loadStamps() (map[string]int64, error) {
	data, err := os.ReadFile(s.stampPath())
	if err != nil {
		return nil, err
	}
	table := make(map[string]int64)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.stampFile, err)
	}
	return table, nil
}

func (s *FileStore) saveStamps(table map[string]int64) error {
	data, err := json.Marshal(table)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.stampPath(), data)
}

// writeFileAtomic writes to a temp file in the same directory, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".freerooms-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
