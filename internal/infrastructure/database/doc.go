// Package database provides SQLite connectivity for the subject directory.
//
// It opens the database with WAL mode and a busy timeout, restricts file
// permissions to the owning user, and applies embedded schema migrations
// at startup. All queries go through parameterised statements.
//
// Usage:
//
//	db, err := database.Open(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
package database
