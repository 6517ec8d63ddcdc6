// Package sqlite implements the durable guest and tag store.
//
// A Backend keeps guests and catalog tags in a modernc.org/sqlite database
// under the configured data directory. Guests come back from Load in the
// order they were first saved; saving an existing guest updates it in place.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/rumor/pkg/types"
)

// DBFile is the database file name inside the data directory.
const DBFile = "rumor.db"

// Backend stores guests and tags in SQLite.
type Backend struct {
	mu       sync.Mutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database in config.DataDir, creating the directory and
// schema if needed. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dataDir, DBFile))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps writes serialized and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("applying schema: %w", err)
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	b.attached = false
	if b.db != nil {
		err := b.db.Close()
		b.db = nil
		return err
	}
	return nil
}

// SaveGuests inserts or updates guests in one transaction.
func (b *Backend) SaveGuests(guests ...types.Guest) error {
	return b.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertGuest)
		if err != nil {
			return fmt.Errorf("preparing guest upsert: %w", err)
		}
		defer stmt.Close()

		for _, g := range guests {
			tags, err := encodeTags(g.Tags)
			if err != nil {
				return err
			}
			if _, err := stmt.Exec(
				g.ID, g.FullName, string(g.RSVPStatus), g.InstagramHandle, g.FollowerCount,
				tags, g.Email, g.Phone, g.InvitedBefore, g.Notes,
			); err != nil {
				return fmt.Errorf("saving guest %s: %w", g.ID, err)
			}
		}
		return nil
	})
}

// DeleteGuests removes guests by id. Unknown ids are ignored.
func (b *Backend) DeleteGuests(ids ...string) error {
	return b.inTx(func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.Exec(`DELETE FROM guests WHERE guest_id = ?`, id); err != nil {
				return fmt.Errorf("deleting guest %s: %w", id, err)
			}
		}
		return nil
	})
}

// SaveTag inserts or updates a catalog tag.
func (b *Backend) SaveTag(tag types.Tag) error {
	return b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(upsertTag, tag.ID, tag.Name, tag.Color); err != nil {
			return fmt.Errorf("saving tag %s: %w", tag.ID, err)
		}
		return nil
	})
}

// DeleteTag removes a catalog tag by id. An unknown id is ignored.
func (b *Backend) DeleteTag(id string) error {
	return b.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM tags WHERE tag_id = ?`, id); err != nil {
			return fmt.Errorf("deleting tag %s: %w", id, err)
		}
		return nil
	})
}

// inTx runs fn in a transaction, committing if fn returns nil.
func (b *Backend) inTx(fn func(tx *sql.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
