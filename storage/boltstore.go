package storage

import (
	"fmt"

	"github.com/boltdb/bolt"
)

// BoltStore is an implementation of Store whose backend is a Bolt database.
type BoltStore bolt.DB

var (
	bucketName = []byte("pairs")
)

func NewBoltStore(db *bolt.DB) (*BoltStore, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return fmt.Errorf("could not ensure bucket %q exists: %w", bucketName, err)
		}
		return nil
	})
	return (*BoltStore)(db), err
}

func (s *BoltStore) Put(key, value string) error {
	return (*bolt.DB)(s).Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketName).Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("could not put %.40q with %.40q: %w", key, value, err)
		}
		return nil
	})
}

func (s *BoltStore) Get(key string) (value string, err error) {
	err = (*bolt.DB)(s).View(func(tx *bolt.Tx) error {
		// The slice is only valid inside the transaction, so copy it out.
		b := tx.Bucket(bucketName).Get([]byte(key))
		if b == nil {
			return fmt.Errorf("%.40q: %w", key, ErrNotFound)
		}
		value = string(b)
		return nil
	})
	return value, err
}
