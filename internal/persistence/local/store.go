// Package local provides a file-backed persistence gateway used when no
// Postgres URL is configured. It mirrors the hosted backend's contract and
// can simulate its latency, which keeps the rest of the service honest
// about asynchronous saves during development.
package local

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"
	"go.uber.org/zap"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
)

// Store persists day records and user accounts as JSON files under a base
// directory, one file per key.
type Store struct {
	d       *diskv.Diskv
	latency time.Duration
	log     *zap.Logger
}

// Options configures a Store.
type Options struct {
	BasePath string
	// Latency is an artificial delay applied to every call, simulating
	// the round trip of the hosted backend. Zero disables it.
	Latency time.Duration
	Logger  *zap.Logger
}

// New creates a Store rooted at opts.BasePath.
func New(opts Options) *Store {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		d: diskv.New(diskv.Options{
			BasePath:          opts.BasePath,
			AdvancedTransform: keyToPath,
			InverseTransform:  pathToKey,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		latency: opts.Latency,
		log:     log,
	}
}

func keyToPath(key string) *diskv.PathKey {
	parts := strings.Split(key, "/")
	last := len(parts) - 1
	return &diskv.PathKey{Path: parts[:last], FileName: parts[last] + ".json"}
}

func pathToKey(pk *diskv.PathKey) string {
	name := strings.TrimSuffix(pk.FileName, ".json")
	return strings.Join(append(append([]string{}, pk.Path...), name), "/")
}

func dayKey(userID, date string) string { return "days/" + userID + "/" + date }
func emailKey(email string) string      { return "users/email/" + email }
func idKey(id string) string            { return "users/id/" + id }

func (s *Store) simulate(ctx context.Context) error {
	if s.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(s.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LoadDay returns the persisted record for (user, date), or nil when none
// exists.
func (s *Store) LoadDay(ctx context.Context, userID, date string) (*domain.DayRecord, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	key := dayKey(userID, date)
	if !s.d.Has(key) {
		return nil, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return nil, err
	}
	var rec domain.DayRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveDay replaces the whole record for (user, date).
func (s *Store) SaveDay(ctx context.Context, userID, date string, rec domain.DayRecord) error {
	if err := s.simulate(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.log.Debug("saving day", zap.String("user_id", userID), zap.String("date", date))
	return s.d.Write(dayKey(userID, date), raw)
}

// MarkAnalyzed flips the advisory analyzed flag on an existing record.
// A missing record is a no-op.
func (s *Store) MarkAnalyzed(ctx context.Context, userID, date string) error {
	rec, err := s.LoadDay(ctx, userID, date)
	if err != nil || rec == nil {
		return err
	}
	rec.Analyzed = true
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.d.Write(dayKey(userID, date), raw)
}

// CreateUser stores the account record and an ID index entry.
func (s *Store) CreateUser(ctx context.Context, rec identity.Record) error {
	if err := s.simulate(ctx); err != nil {
		return err
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.d.Write(emailKey(rec.Email), raw); err != nil {
		return err
	}
	return s.d.Write(idKey(rec.ID), []byte(rec.Email))
}

// FindUserByEmail returns the account for an email, or nil when unknown.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*identity.Record, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	key := emailKey(email)
	if !s.d.Has(key) {
		return nil, nil
	}
	raw, err := s.d.Read(key)
	if err != nil {
		return nil, err
	}
	var rec identity.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// FindUser resolves an account by ID through the index.
func (s *Store) FindUser(ctx context.Context, id string) (*identity.Record, error) {
	if err := s.simulate(ctx); err != nil {
		return nil, err
	}
	key := idKey(id)
	if !s.d.Has(key) {
		return nil, nil
	}
	email, err := s.d.Read(key)
	if err != nil {
		return nil, err
	}
	if !s.d.Has(emailKey(string(email))) {
		return nil, nil
	}
	raw, err := s.d.Read(emailKey(string(email)))
	if err != nil {
		return nil, err
	}
	var rec identity.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
