package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/habitloop/stats-engine/internal/core/domain"
)

var _ domain.LocalStore = (*BoltStore)(nil)

var (
	bucketHabits      = []byte("habits")
	bucketCompletions = []byte("completions")
	bucketMeta        = []byte("meta")

	metaKey = []byte("sync")
)

// BoltStore persists the on-device dataset in a single bbolt file.
// Habits are keyed by ID, completions by their (habit, day) slot, and
// sync metadata lives under one fixed key.
type BoltStore struct {
	path string

	mu sync.Mutex
	db *bolt.DB
}

func NewBoltStore(path string) *BoltStore {
	return &BoltStore{path: path}
}

func (s *BoltStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return storageErr("open store", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketHabits, bucketCompletions, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return storageErr("create buckets", err)
	}

	s.db = db
	return nil
}

func (s *BoltStore) GetHabits(ctx context.Context) ([]domain.Habit, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	habits := make([]domain.Habit, 0)
	err = db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHabits).ForEach(func(_, v []byte) error {
			var h domain.Habit
			if err := json.Unmarshal(v, &h); err != nil {
				return err
			}
			habits = append(habits, h)
			return nil
		})
	})
	if err != nil {
		return nil, storageErr("read habits", err)
	}

	return habits, nil
}

func (s *BoltStore) SaveHabits(ctx context.Context, habits []domain.Habit) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketHabits); err != nil {
			return err
		}
		b, err := tx.CreateBucket(bucketHabits)
		if err != nil {
			return err
		}
		for _, h := range habits {
			data, err := json.Marshal(h)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(h.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("write habits", err)
	}

	return nil
}

func (s *BoltStore) GetCompletions(ctx context.Context) ([]domain.Completion, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	completions := make([]domain.Completion, 0)
	err = db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketCompletions).ForEach(func(_, v []byte) error {
			var c domain.Completion
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			completions = append(completions, c)
			return nil
		})
	})
	if err != nil {
		return nil, storageErr("read completions", err)
	}

	return completions, nil
}

func (s *BoltStore) UpsertCompletions(ctx context.Context, completions []domain.Completion) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCompletions)
		for _, c := range completions {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(c.Key()), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("write completions", err)
	}

	return nil
}

func (s *BoltStore) GetMetadata(ctx context.Context) (*domain.SyncMetadata, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var meta *domain.SyncMetadata
	err = db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(metaKey)
		if v == nil {
			return nil
		}
		var m domain.SyncMetadata
		if err := json.Unmarshal(v, &m); err != nil {
			return err
		}
		meta = &m
		return nil
	})
	if err != nil {
		return nil, storageErr("read metadata", err)
	}
	if meta == nil {
		return nil, domain.ErrMetadataNotFound
	}

	return meta, nil
}

func (s *BoltStore) SaveMetadata(ctx context.Context, meta domain.SyncMetadata) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return storageErr("encode metadata", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(metaKey, data)
	})
	if err != nil {
		return storageErr("write metadata", err)
	}

	return nil
}

func (s *BoltStore) ClearAll(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketHabits, bucketCompletions, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr("clear store", err)
	}

	return nil
}

func (s *BoltStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	if err != nil {
		return storageErr("close store", err)
	}
	return nil
}

func (s *BoltStore) handle() (*bolt.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("store not open: %w", domain.ErrStorageUnavailable)
	}
	return s.db, nil
}

// storageErr classifies any store I/O failure under
// domain.ErrStorageUnavailable while keeping the cause in the chain.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
