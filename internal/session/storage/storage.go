// Package storage persists the single session record under a fixed key and
// enforces record validity on every load.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"portfolio-client/internal/security"
	"portfolio-client/internal/session/domain"
	"portfolio-client/internal/session/repository"
)

// Key is the repository key holding the session record.
const Key = "auth"

// ErrInconsistentRecord is returned by Save when the record's expiry does not match its token.
var ErrInconsistentRecord = errors.New("session record expiry does not match token")

// ExpiryDecoder extracts the expiry (epoch milliseconds) from an access token.
type ExpiryDecoder interface {
	Expiry(token string) (int64, error)
}

// Storage reads and writes the session record. A record is handed out only when
// it parses, agrees with its token and has not expired; anything else is removed.
type Storage struct {
	repo  repository.Repository
	codec ExpiryDecoder
	key   string
	nowF  func() time.Time
}

// Option configures a Storage.
type Option func(*Storage)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.nowF = now }
}

// WithDecoder overrides the token decoder (e.g. a verifying codec).
func WithDecoder(d ExpiryDecoder) Option {
	return func(s *Storage) { s.codec = d }
}

// New returns a Storage over repo.
func New(repo repository.Repository, opts ...Option) *Storage {
	s := &Storage{
		repo:  repo,
		codec: security.NewCodec(nil),
		key:   Key,
		nowF:  time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Save replaces the stored record with rec.
func (s *Storage) Save(ctx context.Context, rec *domain.Record) error {
	if rec == nil {
		return fmt.Errorf("%w: nil record", ErrInconsistentRecord)
	}
	if err := rec.User.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistentRecord, err)
	}
	exp, err := s.codec.Expiry(rec.AccessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInconsistentRecord, err)
	}
	if exp != rec.ExpiresAt {
		return ErrInconsistentRecord
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	if err := s.repo.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

// Load returns the stored record if it is valid now. It returns nil, nil when no
// usable record exists; corrupt, inconsistent and expired records are deleted.
// An error is returned only when the backend itself fails. Only the session
// owner should call Load; other readers use Peek.
func (s *Storage) Load(ctx context.Context) (*domain.Record, error) {
	rec, stale, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if stale {
		return nil, s.discard(ctx)
	}
	return rec, nil
}

// Peek is Load without side effects: an unusable record is reported as absent
// but left in place for the owner to clear.
func (s *Storage) Peek(ctx context.Context) (*domain.Record, error) {
	rec, _, err := s.read(ctx)
	return rec, err
}

// read decodes and validates the stored record. stale is true when a record
// exists but must not be used.
func (s *Storage) read(ctx context.Context) (rec *domain.Record, stale bool, err error) {
	data, err := s.repo.Get(ctx, s.key)
	if err != nil {
		return nil, false, fmt.Errorf("load session record: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}
	var r domain.Record
	if err := json.Unmarshal(data, &r); err != nil {
		log.Printf("storage: unparsable session record: %v", err)
		return nil, true, nil
	}
	if r.AccessToken == "" {
		log.Printf("storage: session record without token")
		return nil, true, nil
	}
	if err := r.User.Validate(); err != nil {
		log.Printf("storage: session record without usable user: %v", err)
		return nil, true, nil
	}
	exp, err := s.codec.Expiry(r.AccessToken)
	if err != nil || exp != r.ExpiresAt {
		log.Printf("storage: inconsistent session record token=%s", security.Fingerprint(r.AccessToken))
		return nil, true, nil
	}
	if r.ExpiredAt(s.nowF()) {
		return nil, true, nil
	}
	return &r, false, nil
}

// Clear removes the stored record. Clearing an empty store is a no-op.
func (s *Storage) Clear(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// AccessToken returns the token of the current valid record, if any. It never
// modifies the store.
func (s *Storage) AccessToken(ctx context.Context) (string, bool) {
	rec, err := s.Peek(ctx)
	if err != nil {
		log.Printf("storage: read token: %v", err)
		return "", false
	}
	if rec == nil {
		return "", false
	}
	return rec.AccessToken, true
}

func (s *Storage) discard(ctx context.Context) error {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("discard session record: %w", err)
	}
	return nil
}
