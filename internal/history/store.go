// Package history keeps a per-guild log of played tracks in a bbolt file.
// Each guild gets its own bucket; keys are the bucket's big-endian sequence
// numbers so a cursor walks entries in play order.
package history

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/EgorLis/musicbot/internal/music"
)

const (
	defaultLimit = 200
	openTimeout  = time.Second
)

type entry struct {
	Title       string    `json:"title"`
	WebpageURL  string    `json:"webpage_url,omitempty"`
	DurationSec int64     `json:"duration_sec"`
	HasDuration bool      `json:"has_duration"`
	RequesterID string    `json:"requester_id"`
	PlayedAt    time.Time `json:"played_at"`
}

var _ music.Recorder = (*Store)(nil)

type Store struct {
	db    *bolt.DB
	limit int
}

// Open creates the file and its directory when missing. limit is the number
// of entries kept per guild.
func Open(path string, limit int) (*Store, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open history %s", path)
	}
	return &Store{db: db, limit: limit}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(guildID string, t music.Track, at time.Time) error {
	data, err := json.Marshal(entry{
		Title:       t.Title,
		WebpageURL:  t.WebpageURL,
		DurationSec: int64(t.Duration / time.Second),
		HasDuration: t.HasDuration,
		RequesterID: t.RequesterID,
		PlayedAt:    at.UTC(),
	})
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(guildID))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(itob(seq), data); err != nil {
			return err
		}
		return s.trim(b)
	})
}

// trim drops the oldest entries above the limit.
func (s *Store) trim(b *bolt.Bucket) error {
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for i := 0; i < len(keys)-s.limit; i++ {
		if err := b.Delete(keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns at most n entries, newest first.
func (s *Store) Recent(guildID string, n int) ([]music.Played, error) {
	var out []music.Played
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(guildID))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			var e entry
			if err := json.Unmarshal(v, &e); err != nil {
				return errors.Wrapf(err, "decode entry %d", binary.BigEndian.Uint64(k))
			}
			out = append(out, music.Played{
				Title:       e.Title,
				WebpageURL:  e.WebpageURL,
				Duration:    time.Duration(e.DurationSec) * time.Second,
				HasDuration: e.HasDuration,
				RequesterID: e.RequesterID,
				PlayedAt:    e.PlayedAt,
			})
		}
		return nil
	})
	return out, err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
