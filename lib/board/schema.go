package board

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS post (
    pid INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    subject TEXT NOT NULL,
    content TEXT NOT NULL,
    email TEXT NOT NULL,
    imageFilename TEXT,
    imageOriginalName TEXT,
    imageMime TEXT,
    imageSize INTEGER
);

CREATE TABLE IF NOT EXISTS reply (
    pid INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    subject TEXT NOT NULL,
    content TEXT NOT NULL,
    parentId INTEGER NOT NULL,
    email TEXT NOT NULL,
    imageFilename TEXT,
    imageOriginalName TEXT,
    imageMime TEXT,
    imageSize INTEGER
);
`

// Open opens (creating if needed) the board database at path and applies the
// schema.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("board: can't open database %s: %w", path, err)
	}

	// modernc.org/sqlite serializes writes per connection; one connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("board: can't apply schema: %w", err)
	}

	return db, nil
}
