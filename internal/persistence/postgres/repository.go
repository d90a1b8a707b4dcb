// Package postgres implements the persistence gateway against Postgres,
// recording outbox events in the same transaction as every ledger write.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/GanagallaJoshitha/tasknest/internal/domain"
	"github.com/GanagallaJoshitha/tasknest/internal/events"
	"github.com/GanagallaJoshitha/tasknest/internal/identity"
	"github.com/GanagallaJoshitha/tasknest/internal/observability"
)

// Repository provides Postgres-backed persistence for day ledgers and
// user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadDay fetches the record for (user, date); (nil, nil) when absent.
func (r *Repository) LoadDay(ctx context.Context, userID, date string) (*domain.DayRecord, error) {
	const query = `SELECT activities, analyzed FROM day_logs WHERE user_id=$1 AND day=$2`

	var raw []byte
	var analyzed bool
	if err := r.pool.QueryRow(ctx, query, userID, date).Scan(&raw, &analyzed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rec := domain.DayRecord{Date: date, Analyzed: analyzed}
	if err := json.Unmarshal(raw, &rec.Activities); err != nil {
		return nil, fmt.Errorf("decode activities for %s/%s: %w", userID, date, err)
	}
	return &rec, nil
}

// SaveDay replaces the whole record for (user, date) and records a
// daylog.saved outbox event inside the same transaction.
func (r *Repository) SaveDay(ctx context.Context, userID, date string, rec domain.DayRecord) error {
	raw, err := json.Marshal(rec.Activities)
	if err != nil {
		return err
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	const upsert = `INSERT INTO day_logs (user_id, day, activities, analyzed, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$5)
        ON CONFLICT (user_id, day)
        DO UPDATE SET activities = EXCLUDED.activities, analyzed = EXCLUDED.analyzed, updated_at = EXCLUDED.updated_at`

	if _, err = tx.Exec(ctx, upsert, userID, date, raw, rec.Analyzed, now); err != nil {
		return err
	}

	total := 0
	for _, a := range rec.Activities {
		total += a.Minutes
	}
	if err = insertOutbox(ctx, tx, userID, date, "daylog.saved", events.DayLogSaved{
		UserID:        userID,
		Date:          date,
		ActivityCount: len(rec.Activities),
		TotalMinutes:  total,
		Analyzed:      rec.Analyzed,
		OccurredAt:    now,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordDayPersisted(now)
	return nil
}

// MarkAnalyzed flips the advisory analyzed flag and records a
// daylog.analyzed event. A missing row is a no-op.
func (r *Repository) MarkAnalyzed(ctx context.Context, userID, date string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx, `UPDATE day_logs SET analyzed = TRUE, updated_at = $3 WHERE user_id=$1 AND day=$2`, userID, date, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return tx.Commit(ctx)
	}

	if err = insertOutbox(ctx, tx, userID, date, "daylog.analyzed", events.DayLogAnalyzed{
		UserID:     userID,
		Date:       date,
		OccurredAt: now,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertOutbox(ctx context.Context, tx pgx.Tx, userID, date, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (user_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		userID,
		"daylog",
		userID+":"+date,
		eventType,
		meta.Topic,
		userID,
		body,
	)
	return err
}

// CreateUser inserts an account row.
func (r *Repository) CreateUser(ctx context.Context, rec identity.Record) error {
	const stmt = `INSERT INTO users (user_id, email, display_name, password_hash, created_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := r.pool.Exec(ctx, stmt, rec.ID, rec.Email, rec.DisplayName, rec.PasswordHash, time.Now().UTC())
	return err
}

// FindUserByEmail returns the account for an email, or nil when unknown.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*identity.Record, error) {
	const query = `SELECT user_id, email, display_name, password_hash FROM users WHERE email=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// FindUser returns the account for an ID, or nil when unknown.
func (r *Repository) FindUser(ctx context.Context, id string) (*identity.Record, error) {
	const query = `SELECT user_id, email, display_name, password_hash FROM users WHERE user_id=$1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *Repository) scanUser(row pgx.Row) (*identity.Record, error) {
	var rec identity.Record
	if err := row.Scan(&rec.ID, &rec.Email, &rec.DisplayName, &rec.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic string
}

var eventCatalog = map[string]EventMetadata{
	"daylog.saved":    {Topic: "daylog_events"},
	"daylog.analyzed": {Topic: "daylog_events"},
}
