package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

const schemaProfileSet = `
CREATE TABLE IF NOT EXISTS profile_set (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    active BOOLEAN NOT NULL,
    internal_profile INTEGER NOT NULL,
    external_profile INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaProfiles = `
CREATE TABLE IF NOT EXISTS profiles (
    id INTEGER PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const (
	profileSetRowID = 1

	upsertProfileSetSQL = `
		INSERT INTO profile_set (id, active, internal_profile, external_profile, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			active=excluded.active,
			internal_profile=excluded.internal_profile,
			external_profile=excluded.external_profile,
			updated_at=excluded.updated_at
	`

	upsertProfileSQL = `
		INSERT INTO profiles (id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data=excluded.data,
			updated_at=excluded.updated_at
	`

	selectProfileSetSQL = `
		SELECT active, internal_profile, external_profile
		FROM profile_set WHERE id=?
	`

	selectProfilesSQL = `
		SELECT id, data FROM profiles ORDER BY id
	`
)

// sqliteStore keeps the profile set in a SQLite database: one row for the
// bindings and one JSON document per profile.
type sqliteStore struct {
	db     *sql.DB
	limits Limits
}

// newSQLiteStore wraps an already opened database.
func newSQLiteStore(db *sql.DB, limits Limits) *sqliteStore {
	return &sqliteStore{db: db, limits: limits}
}

// openSQLiteStore opens or creates the database file and ensures the schema.
func openSQLiteStore(path string, limits Limits) (*sqliteStore, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// One writer; the session is single-threaded anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return newSQLiteStore(db, limits), nil
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{schemaProfileSet, schemaProfiles} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// Read loads the profile set. Missing rows yield defaults.
func (s *sqliteStore) Read() (ProfileSet, error) {
	set := DefaultProfileSet(s.limits)

	var internal, external int
	err := s.db.QueryRow(selectProfileSetSQL, profileSetRowID).Scan(&set.Active, &internal, &external)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return set, nil
	case err != nil:
		return ProfileSet{}, fmt.Errorf("query profile set: %w", err)
	}
	set.Internal = ProfileID(internal)
	set.External = ProfileID(external)

	rows, err := s.db.Query(selectProfilesSQL)
	if err != nil {
		return ProfileSet{}, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		var data string
		if err := rows.Scan(&id, &data); err != nil {
			return ProfileSet{}, fmt.Errorf("scan profile: %w", err)
		}
		if !ProfileID(id).Valid() {
			continue
		}
		p := DefaultProfile(s.limits)
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return ProfileSet{}, fmt.Errorf("decode profile %d: %w", id+1, err)
		}
		set.Profiles[id] = p
	}
	if err := rows.Err(); err != nil {
		return ProfileSet{}, fmt.Errorf("iterate profiles: %w", err)
	}

	return finishRead(set, s.limits)
}

// Write upserts the bindings row and every profile in one transaction.
func (s *sqliteStore) Write(set ProfileSet) error {
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.Exec(upsertProfileSetSQL,
		profileSetRowID, set.Active, int(set.Internal), int(set.External), now); err != nil {
		return fmt.Errorf("write profile set: %w", err)
	}

	for i, p := range set.Profiles {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode profile %d: %w", i+1, err)
		}
		if _, err := tx.Exec(upsertProfileSQL, i, string(data), now); err != nil {
			return fmt.Errorf("write profile %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write transaction: %w", err)
	}
	return nil
}
