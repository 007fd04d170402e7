// Package store provides a concrete, disk-backed implementation of
// interp.ProgramCache, the interface the core treats as an external
// collaborator (catalog sync is out of scope; this is just *a* realization
// of it that makes the module runnable end to end). It follows the
// teacher's own database package's shape — a struct wrapping a *sql.DB
// behind a small set of methods, guarded by a mutex where the teacher's
// DatabaseModule guards its connection map — but targets
// modernc.org/sqlite, a pure-Go driver, instead of the teacher's cgo
// bindings.
package store

import (
	"database/sql"
	"sync"

	_ "modernc.org/sqlite"

	"loda/internal/errs"
	"loda/internal/lang"
)

// SQLiteProgramCache is a SQLite-backed interp.ProgramCache / matcher-friendly
// program store: one row per catalog id, holding the program's assembly
// text. Reads are cached in memory; writes go straight through.
type SQLiteProgramCache struct {
	db *sql.DB

	mu    sync.RWMutex
	cache map[int64]*lang.Program
}

// Open opens (creating if necessary) a SQLite database at path and ensures
// the programs table exists.
func Open(path string) (*SQLiteProgramCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperand, err, "store: opening database")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		id INTEGER PRIMARY KEY,
		source TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, errs.Wrap(errs.InvalidOperand, err, "store: creating programs table")
	}
	return &SQLiteProgramCache{db: db, cache: make(map[int64]*lang.Program)}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteProgramCache) Close() error {
	return c.db.Close()
}

// Get resolves id to its registered Program, satisfying interp.ProgramCache.
func (c *SQLiteProgramCache) Get(id int64) (*lang.Program, error) {
	c.mu.RLock()
	if p, ok := c.cache[id]; ok {
		c.mu.RUnlock()
		return p, nil
	}
	c.mu.RUnlock()

	var source string
	err := c.db.QueryRow(`SELECT source FROM programs WHERE id = ?`, id).Scan(&source)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.InvalidOperand, "store: no program registered under id %d", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperand, err, "store: querying program")
	}
	p, err := lang.Parse(source)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidOperand, err, "store: parsing stored program")
	}

	c.mu.Lock()
	c.cache[id] = p
	c.mu.Unlock()
	return p, nil
}

// Put registers p under id, replacing any program previously registered
// there, and refreshes the in-memory cache.
func (c *SQLiteProgramCache) Put(id int64, p *lang.Program) error {
	source := p.String()
	if _, err := c.db.Exec(
		`INSERT INTO programs (id, source) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET source = excluded.source`,
		id, source,
	); err != nil {
		return errs.Wrap(errs.InvalidOperand, err, "store: writing program")
	}
	c.mu.Lock()
	c.cache[id] = p
	c.mu.Unlock()
	return nil
}

// Delete removes the program registered under id, if any, from both the
// database and the in-memory cache.
func (c *SQLiteProgramCache) Delete(id int64) error {
	if _, err := c.db.Exec(`DELETE FROM programs WHERE id = ?`, id); err != nil {
		return errs.Wrap(errs.InvalidOperand, err, "store: deleting program")
	}
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	return nil
}

// Invalidate drops id from the in-memory cache without touching the
// database, forcing the next Get to re-read and re-parse it. Used after an
// external process (outside this SQLiteProgramCache) updates row id directly.
func (c *SQLiteProgramCache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
}
