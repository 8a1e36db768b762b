package storage

import (
	"crypto/sha256"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// DiskStore implements Store keeping one file per key under dir.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Put(key, value string) (err error) {
	valpath := s.pathFor(key)
	err = ioutil.WriteFile(valpath, []byte(value), 0600)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("could not write %q: %w", valpath, err)
	}
	if err = os.MkdirAll(filepath.Dir(valpath), 0700); err != nil {
		return fmt.Errorf("could not make dir for %q: %w", valpath, err)
	}
	return ioutil.WriteFile(valpath, []byte(value), 0600)
}

func (s *DiskStore) Get(key string) (value string, err error) {
	b, err := ioutil.ReadFile(s.pathFor(key))
	if os.IsNotExist(err) {
		return "", fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Keys are arbitrary user strings, so they never become path components
// directly.
func (s *DiskStore) pathFor(key string) string {
	hex := fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
	return filepath.Join(s.dir, hex[:2], hex)
}
