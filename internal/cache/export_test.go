package cache

import (
	"context"
	"database/sql"
)

// BumpSchemaVersionForTest rewrites the stored schema version so tests can
// exercise the mismatch path.
func BumpSchemaVersionForTest(path string) error {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = version + 1")
	return err
}

// HoldWriteLockForTest opens a second connection to path and keeps a write
// transaction open until release is called.
func HoldWriteLockForTest(path string) (release func(), err error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO kv (key, value) VALUES ('lock_holder', '1')"); err != nil {
		_ = tx.Rollback()
		_ = db.Close()
		return nil, err
	}
	return func() {
		_ = tx.Rollback()
		_ = db.Close()
	}, nil
}
