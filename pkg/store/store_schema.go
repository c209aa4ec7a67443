package store

import "context"

// migrate creates the necessary database tables
func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS authors (
		id SERIAL PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		born INTEGER
	);

	CREATE TABLE IF NOT EXISTS books (
		isbn TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		pages INTEGER,
		rating DOUBLE PRECISION,
		published BOOLEAN NOT NULL DEFAULT FALSE,
		genre TEXT NOT NULL,
		author_id INTEGER REFERENCES authors(id),
		tags TEXT[] NOT NULL DEFAULT '{}',
		reviews JSONB NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_books_genre ON books(genre);
	CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
