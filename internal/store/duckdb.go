// TownPulse - Community Engagement and Trending Engine
// Copyright 2026 TownPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/townpulse/townpulse

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/townpulse/townpulse/internal/logging"
	"github.com/townpulse/townpulse/internal/models"
)

// DuckDBConfig tunes the embedded DuckDB backend.
type DuckDBConfig struct {
	// Path is the database file location.
	Path string

	// Threads limits DuckDB's worker threads; 0 uses all CPUs.
	Threads int

	// MaxMemory caps DuckDB memory, e.g. "512MB".
	MaxMemory string
}

// DuckDBStore is the durable EventStore backed by an embedded DuckDB
// database file.
type DuckDBStore struct {
	conn *sql.DB
}

// NewDuckDBStore opens (or creates) the database file and initializes
// the schema.
func NewDuckDBStore(cfg DuckDBConfig) (*DuckDBStore, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "512MB"
	}

	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted
	// network environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &DuckDBStore{conn: conn}
	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("event store opened")
	return s, nil
}

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates the events table and its indexes.
func (s *DuckDBStore) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS engagement_events (
			id UUID PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			user_id TEXT,
			session_id TEXT,
			metadata TEXT,
			points INTEGER NOT NULL,
			occurred_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity
			ON engagement_events(entity_type, entity_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_occurred
			ON engagement_events(occurred_at)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// Append durably records one event. Metadata is stored as its JSON
// encoding and never inspected.
func (s *DuckDBStore) Append(ctx context.Context, event models.EngagementEvent) error {
	const query = `INSERT INTO engagement_events
		(id, entity_type, entity_id, action, user_id, session_id, metadata, points, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	userID := sql.NullString{String: event.UserID, Valid: event.UserID != ""}
	sessionID := sql.NullString{String: event.SessionID, Valid: event.SessionID != ""}

	var metadata sql.NullString
	if len(event.Metadata) > 0 {
		raw, err := json.Marshal(event.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for event %s: %w", event.ID, err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.conn.ExecContext(ctx, query,
		event.ID, string(event.EntityType), event.EntityID,
		string(event.Action), userID, sessionID, metadata,
		event.Points, event.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to append event %s: %w", event.ID, err)
	}
	return nil
}

// Query returns all events matching the filter, ordered by occurred_at.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]models.EngagementEvent, error) {
	query := `SELECT id, entity_type, entity_id, action, user_id, session_id, metadata, points, occurred_at
		FROM engagement_events
		WHERE occurred_at >= ? AND occurred_at < ?`
	args := []interface{}{filter.Window.Start.UTC(), filter.Window.End.UTC()}

	if filter.EntityType != nil {
		query += " AND entity_type = ?"
		args = append(args, string(*filter.EntityType))
	}
	if filter.EntityID != "" {
		query += " AND entity_id = ?"
		args = append(args, filter.EntityID)
	}
	query += " ORDER BY occurred_at"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []models.EngagementEvent
	for rows.Next() {
		var (
			ev        models.EngagementEvent
			et        string
			action    string
			userID    sql.NullString
			sessionID sql.NullString
			metadata  sql.NullString
		)
		if err := rows.Scan(&ev.ID, &et, &ev.EntityID, &action, &userID, &sessionID, &metadata, &ev.Points, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		ev.EntityType = models.EntityType(et)
		ev.Action = models.Action(action)
		ev.UserID = userID.String
		ev.SessionID = sessionID.String
		if metadata.Valid {
			if err := json.Unmarshal([]byte(metadata.String), &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for event %s: %w", ev.ID, err)
			}
		}
		ev.OccurredAt = ev.OccurredAt.UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

// DistinctEntityIDs returns ids of entities active inside the window.
func (s *DuckDBStore) DistinctEntityIDs(ctx context.Context, entityType *models.EntityType, window models.TimeWindow) ([]string, error) {
	query := `SELECT DISTINCT entity_id FROM engagement_events
		WHERE occurred_at >= ? AND occurred_at < ?`
	args := []interface{}{window.Start.UTC(), window.End.UTC()}

	if entityType != nil {
		query += " AND entity_type = ?"
		args = append(args, string(*entityType))
	}
	query += " ORDER BY entity_id"

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct entities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entity id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity id rows: %w", err)
	}

	return ids, nil
}

// Ping verifies the database is reachable.
func (s *DuckDBStore) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("event store ping failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}
