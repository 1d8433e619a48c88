package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prakasajudha/farewell-pet/pkg/store"
)

// Store persists sessions keyed by session ID. It is a dumb boundary:
// Save overwrites, Load returns ErrAbsent for anything unknown or
// unreadable, Clear removes. Validation belongs to the guard.
type Store struct {
	KV  store.KV
	TTL time.Duration
}

// ErrAbsent means no session was ever saved under the ID, or it was cleared.
var ErrAbsent = errors.New("session: absent")

const keyPrefix = "sess:"

func NewStore(kv store.KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{KV: kv, TTL: ttl}
}

func (s *Store) Save(ctx context.Context, sid string, sess Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.KV.Set(ctx, keyPrefix+sid, string(raw), s.TTL)
}

func (s *Store) Load(ctx context.Context, sid string) (*Session, error) {
	if sid == "" {
		return nil, ErrAbsent
	}
	raw, err := s.KV.Get(ctx, keyPrefix+sid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAbsent
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// Corrupt session data is indistinguishable from no session.
		_ = s.KV.Del(ctx, keyPrefix+sid)
		return nil, ErrAbsent
	}
	return &sess, nil
}

func (s *Store) Clear(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return s.KV.Del(ctx, keyPrefix+sid)
}
