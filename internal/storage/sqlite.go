// Package storage persists hotpost aggregates in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pulsebot/pulse/internal/hotpost"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection holding the hotposts table.
type DB struct {
	db *sql.DB
}

// selectHotpostFields is the standard field list for SELECT queries.
const selectHotpostFields = `id, channel, ts, reaction_count, reactions,
	users_count, users, is_early, is_hot, updated_at`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS hotposts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel TEXT NOT NULL,
			ts TEXT NOT NULL,
			reaction_count INTEGER NOT NULL,
			reactions TEXT NOT NULL,
			users_count INTEGER NOT NULL,
			users TEXT NOT NULL,
			is_early INTEGER NOT NULL,
			is_hot INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);

		-- Point lookups by post key
		CREATE INDEX IF NOT EXISTS idx_hotposts_channel_ts ON hotposts(channel, ts);

		-- Staleness scans
		CREATE INDEX IF NOT EXISTS idx_hotposts_updated_at ON hotposts(updated_at);
	`

	_, err := db.Exec(schema)
	return err
}

// Create inserts a new aggregate row. The caller is responsible for having
// confirmed absence via Get; the post key is not a unique constraint.
func (d *DB) Create(ctx context.Context, h *hotpost.Hotpost) error {
	reactionsJSON, usersJSON, err := marshalColumns(h)
	if err != nil {
		return err
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT INTO hotposts (channel, ts, reaction_count, reactions, users_count, users, is_early, is_hot, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.Channel, h.Ts, h.ReactionCount, reactionsJSON,
		h.UsersCount, usersJSON, boolToInt(h.IsEarly), boolToInt(h.IsHot), h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting hotpost %s/%s: %w", h.Channel, h.Ts, err)
	}
	if id, err := res.LastInsertId(); err == nil {
		h.ID = id
	}
	return nil
}

// Get retrieves the aggregate for a post key. Returns (nil, nil) when no row
// exists.
func (d *DB) Get(ctx context.Context, channel, ts string) (*hotpost.Hotpost, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+selectHotpostFields+` FROM hotposts WHERE channel = ? AND ts = ?`,
		channel, ts)
	return scanHotpost(row)
}

// Update overwrites the mutable fields of an existing row, matched by post
// key.
func (d *DB) Update(ctx context.Context, h *hotpost.Hotpost) error {
	reactionsJSON, usersJSON, err := marshalColumns(h)
	if err != nil {
		return err
	}

	_, err = d.db.ExecContext(ctx, `
		UPDATE hotposts
		SET reaction_count = ?, reactions = ?, users_count = ?, users = ?, is_early = ?, is_hot = ?, updated_at = ?
		WHERE channel = ? AND ts = ?`,
		h.ReactionCount, reactionsJSON, h.UsersCount, usersJSON,
		boolToInt(h.IsEarly), boolToInt(h.IsHot), h.UpdatedAt,
		h.Channel, h.Ts,
	)
	if err != nil {
		return fmt.Errorf("updating hotpost %s/%s: %w", h.Channel, h.Ts, err)
	}
	return nil
}

// List returns a page of aggregates ordered by updated_at descending. An
// empty page signals end-of-data.
func (d *DB) List(ctx context.Context, offset, limit int) ([]hotpost.Hotpost, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+selectHotpostFields+` FROM hotposts ORDER BY updated_at DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing hotposts: %w", err)
	}
	defer rows.Close()

	var posts []hotpost.Hotpost
	for rows.Next() {
		h, err := scanHotpost(rows)
		if err != nil {
			return nil, err
		}
		if h != nil {
			posts = append(posts, *h)
		}
	}
	return posts, rows.Err()
}

// DeleteMany removes rows by post key, best-effort: a failure on one key
// does not abort the others. Returns how many rows were deleted, with any
// per-key failures joined into the returned error.
func (d *DB) DeleteMany(ctx context.Context, keys []hotpost.PostKey) (int, error) {
	deleted := 0
	var errs []error
	for _, key := range keys {
		res, err := d.db.ExecContext(ctx,
			`DELETE FROM hotposts WHERE channel = ? AND ts = ?`, key.Channel, key.Ts)
		if err != nil {
			errs = append(errs, fmt.Errorf("deleting hotpost %s/%s: %w", key.Channel, key.Ts, err))
			continue
		}
		if n, err := res.RowsAffected(); err == nil {
			deleted += int(n)
		}
	}
	return deleted, errors.Join(errs...)
}

// Count returns the total number of aggregates.
func (d *DB) Count(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM hotposts").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanHotpost(s scanner) (*hotpost.Hotpost, error) {
	var h hotpost.Hotpost
	var reactionsJSON, usersJSON string
	var isEarly, isHot int

	err := s.Scan(
		&h.ID, &h.Channel, &h.Ts, &h.ReactionCount, &reactionsJSON,
		&h.UsersCount, &usersJSON, &isEarly, &isHot, &h.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	h.IsEarly = isEarly == 1
	h.IsHot = isHot == 1

	if err := json.Unmarshal([]byte(reactionsJSON), &h.Reactions); err != nil {
		return nil, fmt.Errorf("parsing reactions JSON for %s/%s: %w", h.Channel, h.Ts, err)
	}
	if err := json.Unmarshal([]byte(usersJSON), &h.Users); err != nil {
		return nil, fmt.Errorf("parsing users JSON for %s/%s: %w", h.Channel, h.Ts, err)
	}

	return &h, nil
}

func marshalColumns(h *hotpost.Hotpost) (reactionsJSON, usersJSON string, err error) {
	reactions := h.Reactions
	if reactions == nil {
		reactions = map[string]int{}
	}
	users := h.Users
	if users == nil {
		users = []string{}
	}

	rb, err := json.Marshal(reactions)
	if err != nil {
		return "", "", fmt.Errorf("marshaling reactions for %s/%s: %w", h.Channel, h.Ts, err)
	}
	ub, err := json.Marshal(users)
	if err != nil {
		return "", "", fmt.Errorf("marshaling users for %s/%s: %w", h.Channel, h.Ts, err)
	}
	return string(rb), string(ub), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
