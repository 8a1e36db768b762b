package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
	"github.com/nicolagi/kvverify/storage"
	log "github.com/sirupsen/logrus"
)

// newStore builds the backend named in c. The returned cleanup function must
// be called once the store is no longer used.
func newStore(c *config) (store storage.Store, cleanup func(), err error) {
	nothing := func() {}
	switch c.Backend.Type {
	case "memory":
		return storage.NewInMemoryStore(), nothing, nil
	case "disk":
		dir := os.ExpandEnv(c.Backend.Dir)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, nil, fmt.Errorf("could not ensure directory %q exists: %w", dir, err)
		}
		return storage.NewDiskStore(dir), nothing, nil
	case "bolt":
		file := os.ExpandEnv(c.Backend.Path)
		if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
			return nil, nil, fmt.Errorf("could not ensure directory for %q exists: %w", file, err)
		}
		db, err := bolt.Open(file, 0600, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open database %q: %w", file, err)
		}
		store, err := storage.NewBoltStore(db)
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("could not instantiate boltdb store at %q: %w", file, err)
		}
		return store, func() {
			if err := db.Close(); err != nil {
				log.Warnf("Could not close boltdb database: %v", err)
			}
		}, nil
	case "s3":
		return storage.NewS3Store(c.Backend.Profile, c.Backend.Region, c.Backend.Bucket), nothing, nil
	case "dynamodb":
		store, err := storage.NewDynamoDBStore(c.Backend.Profile, c.Backend.Region, c.Backend.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, nothing, nil
	default:
		return nil, nil, fmt.Errorf("%q: unknown backend type", c.Backend.Type)
	}
}
