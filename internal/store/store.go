// Package store persists the shared note collection in an encrypted SQLite
// database and fans out full-snapshot change notifications to subscribers.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/kuitang/cloudnotes/internal/errs"
	"github.com/kuitang/cloudnotes/internal/obs"
)

const (
	// MaxOpenConns is deliberately low: SQLite is single-writer and the
	// collection is a personal/team note list, not web-scale.
	MaxOpenConns = 4

	// MaxIdleConns keeps at least one connection alive so in-memory
	// databases survive between queries.
	MaxIdleConns = 1
)

// Note is one persisted record of the shared collection.
//
// AITitle and AICategory start as per-language placeholder values and are
// overwritten in place (same id) once enrichment completes. CreatedAt is an
// RFC3339Nano UTC string and the canonical newest-first sort key.
type Note struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	AITitle    string `json:"ai_title"`
	AICategory string `json:"ai_category"`
	CreatedAt  string `json:"created_at"`
}

// UnsubscribeFunc releases a live subscription.
type UnsubscribeFunc func()

// Store is the note collection with a live subscription hub. Mutations
// re-read the full ordered list and deliver it to every subscriber, in
// mutation order.
type Store struct {
	db  *sql.DB
	log interface {
		Warn(msg string, args ...any)
		Error(msg string, args ...any)
	}

	mu          sync.Mutex
	subscribers map[int64]func([]Note)
	nextSubID   int64
}

// Open opens (creating if needed) the encrypted notes database at path.
// masterKeyHex must be 64 hex characters (a 256-bit SQLCipher key).
func Open(path, masterKeyHex string) (*Store, error) {
	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", path, masterKeyHex)
	return openDSN(dsn)
}

// OpenInMemory opens a fresh in-memory database for tests. Each distinct
// name is a fully isolated collection.
func OpenInMemory(name string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	return openDSN(dsn)
}

func openDSN(dsn string) (*Store, error) {
	db, err := sql.Open(SQLiteDriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open notes database: %w", err)
	}
	db.SetMaxOpenConns(MaxOpenConns)
	db.SetMaxIdleConns(MaxIdleConns)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping notes database: %w", err)
	}
	if _, err := db.Exec(NotesDBSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply notes schema: %w", err)
	}

	return &Store{
		db:          db,
		log:         obs.Pkg("store"),
		subscribers: make(map[int64]func([]Note)),
	}, nil
}

// Close tears down the store. Subscribers receive no further snapshots.
func (s *Store) Close() error {
	s.mu.Lock()
	s.subscribers = make(map[int64]func([]Note))
	s.mu.Unlock()
	return s.db.Close()
}

// GetAll returns the full collection ordered by created_at descending.
func (s *Store) GetAll(ctx context.Context) ([]Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, ai_title, ai_category, created_at
		 FROM notes ORDER BY created_at DESC`)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "failed to list notes", err)
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Content, &n.AITitle, &n.AICategory, &n.CreatedAt); err != nil {
			return nil, errs.Wrap(errs.Internal, "failed to read note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to read notes", err)
	}
	return notes, nil
}

// Save upserts the note by id: inserts when the id is new, otherwise
// overwrites every field of the existing record. Never duplicates ids.
func (s *Store) Save(ctx context.Context, note Note) error {
	if note.ID == "" {
		return errs.New(errs.InvalidArgument, "note ID is required")
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, content, ai_title, ai_category, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     content = excluded.content,
		     ai_title = excluded.ai_title,
		     ai_category = excluded.ai_category,
		     created_at = excluded.created_at`,
		note.ID, note.Content, note.AITitle, note.AICategory, note.CreatedAt)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to save note", err)
	}

	s.broadcast(ctx)
	return nil
}

// Delete removes the note with the given id. Deleting an absent id is a
// tolerated no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errs.New(errs.InvalidArgument, "note ID is required")
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "failed to delete note", err)
	}

	// Only an actual removal changes the collection.
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil
	}

	s.broadcast(ctx)
	return nil
}

// Subscribe establishes a live feed: onChange receives the complete current
// list immediately and again after every mutation, in mutation order.
// Callbacks run on the mutating goroutine and must not block.
// Returns an error when the initial read fails, so callers can surface a
// connectivity failure instead of silently presenting an empty list.
func (s *Store) Subscribe(onChange func([]Note)) (UnsubscribeFunc, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	initial, err := s.GetAll(context.Background())
	if err != nil {
		return nil, fmt.Errorf("establish note feed: %w", err)
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = onChange

	onChange(initial)

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}, nil
}

// broadcast re-reads the full collection and delivers it to every
// subscriber. Holding mu while dispatching serializes snapshots so
// subscribers observe mutations in store order.
func (s *Store) broadcast(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subscribers) == 0 {
		return
	}

	snapshot, err := s.GetAll(ctx)
	if err != nil {
		s.log.Error("snapshot read failed, skipping fan-out", "error", err)
		return
	}
	for _, onChange := range s.subscribers {
		onChange(snapshot)
	}
}
