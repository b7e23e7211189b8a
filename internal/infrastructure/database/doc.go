// Package database provides the SQLite connection used by the relational
// shell backend.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Embedded, versioned schema migrations
//   - Health checks for the /health endpoint
//
// All queries issued through DB use parameterised statements. The database
// file is created with 0600 permissions.
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path, WALMode: true, BusyTimeout: 5})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with a
// matching .down.sql, and are embedded by the migrations package.
package database
