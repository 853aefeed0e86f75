package store

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"go.etcd.io/bbolt"
)

// bucketSessions holds one compressed canvas per session key.
var bucketSessions = []byte("sessions")

// Bolt is a blob store backed by a BoltDB file. Blobs are zstd-compressed
// at rest.
type Bolt struct {
	db      *bbolt.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Bolt, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions bucket: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		encoder.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Bolt{db: db, encoder: encoder, decoder: decoder}, nil
}

// Close releases the database. Closing twice is a no-op.
func (s *Bolt) Close() error {
	if s.db == nil {
		return nil
	}
	s.encoder.Close()
	s.decoder.Close()
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Bolt) Save(ctx context.Context, key string, blob []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	compressed := s.encoder.EncodeAll(blob, nil)
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(key), compressed)
	})
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", key, err)
	}
	return nil
}

func (s *Bolt) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	var compressed []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketSessions).Get([]byte(key)); v != nil {
			// v is only valid inside the transaction
			compressed = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read session %s: %w", key, err)
	}
	if compressed == nil {
		return nil, false, nil
	}
	blob, err := s.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress session %s: %w", key, err)
	}
	return blob, true, nil
}

// Keys lists every saved session key.
func (s *Bolt) Keys(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	var keys []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}
