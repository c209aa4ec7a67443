package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/dd0wney/cluso-filtering/pkg/graphql"
	"github.com/dd0wney/cluso-filtering/pkg/logging"
	"github.com/dd0wney/cluso-filtering/pkg/sqlfilter"
	"github.com/jackc/pgx/v5"
)

// BookTable maps BookFilterInput onto the books query. Reviews are stored
// as JSONB and cannot be filtered in SQL.
var BookTable = &sqlfilter.Table{Columns: map[string]sqlfilter.Column{
	"isbn":      {Expr: "b.isbn"},
	"title":     {Expr: "b.title"},
	"pages":     {Expr: "b.pages"},
	"rating":    {Expr: "b.rating"},
	"published": {Expr: "b.published"},
	"genre":     {Expr: "b.genre"},
	"tags":      {Expr: "b.tags", Array: true},
	"reviews":   {Expr: "b.reviews", Array: true, Nested: &sqlfilter.Table{}},
	"author": {Nested: &sqlfilter.Table{Columns: map[string]sqlfilter.Column{
		"name": {Expr: "a.name"},
		"born": {Expr: "a.born"},
	}}},
}}

const selectBooks = `
	SELECT b.isbn, b.title, b.pages, b.rating, b.published, b.genre, b.tags, b.reviews, a.name, a.born
	FROM books b
	LEFT JOIN authors a ON a.id = b.author_id`

// booksQuery returns the statement selecting the books that match where.
func (s *PGStore) booksQuery(where *filtering.Node) (string, []any, error) {
	if where == nil {
		where = filtering.EmptyNode()
	}
	clause, err := s.translator.Where(where, BookTable)
	if err != nil {
		return "", nil, err
	}
	return selectBooks + "\n\tWHERE " + clause.SQL + "\n\tORDER BY b.position", clause.Args, nil
}

// FindBooks returns the books matching where, shaped like the maps of
// graphql.Library so the demo schema can serve them unchanged.
func (s *PGStore) FindBooks(ctx context.Context, where *filtering.Node) ([]map[string]any, error) {
	query, args, err := s.booksQuery(where)
	if err != nil {
		return nil, err
	}

	fields := []logging.Field{logging.Count(len(args))}
	if where != nil {
		fields = append(fields, logging.Fingerprint(where.Fingerprint()))
	}
	timer := logging.StartTimer(s.logger, "books query", fields...)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	books, err := pgx.CollectRows(rows, scanBook)
	if err != nil {
		timer.EndError(err)
		return nil, fmt.Errorf("failed to read books: %w", err)
	}

	timer.EndWithLevel(logging.DebugLevel, "books query", logging.Int("rows", len(books)))
	return books, nil
}

func scanBook(row pgx.CollectableRow) (map[string]any, error) {
	var (
		isbn, title, genre string
		pages              *int32
		rating             *float64
		published          bool
		tags               []string
		reviewsJSON        []byte
		authorName         *string
		authorBorn         *int32
	)
	if err := row.Scan(&isbn, &title, &pages, &rating, &published, &genre, &tags, &reviewsJSON, &authorName, &authorBorn); err != nil {
		return nil, err
	}

	book := map[string]any{
		"isbn":      isbn,
		"title":     title,
		"published": published,
		"genre":     genre,
	}
	if pages != nil {
		book["pages"] = int(*pages)
	}
	if rating != nil {
		book["rating"] = *rating
	}

	tagList := make([]any, len(tags))
	for i, tag := range tags {
		tagList[i] = tag
	}
	book["tags"] = tagList

	reviews := []any{}
	if len(reviewsJSON) > 0 {
		if err := json.Unmarshal(reviewsJSON, &reviews); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reviews of %s: %w", isbn, err)
		}
	}
	book["reviews"] = reviews

	if authorName != nil {
		author := map[string]any{"name": *authorName}
		if authorBorn != nil {
			author["born"] = int(*authorBorn)
		}
		book["author"] = author
	}
	return book, nil
}

// SeedLibrary writes lib's authors and books. Existing books are left
// alone, so seeding twice is harmless.
func (s *PGStore) SeedLibrary(ctx context.Context, lib *graphql.Library) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		authorIDs := make(map[string]int32, len(lib.Authors))
		for _, author := range lib.Authors {
			name, _ := author["name"].(string)
			var id int32
			err := tx.QueryRow(ctx, `
				INSERT INTO authors (name, born) VALUES ($1, $2)
				ON CONFLICT (name) DO UPDATE SET born = EXCLUDED.born
				RETURNING id
			`, name, author["born"]).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to seed author %s: %w", name, err)
			}
			authorIDs[name] = id
		}

		for i, book := range lib.Books {
			row, err := bookRow(book, authorIDs)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO books (isbn, position, title, pages, rating, published, genre, author_id, tags, reviews)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
				ON CONFLICT (isbn) DO NOTHING
			`, append([]any{row.isbn, i}, row.values...)...)
			if err != nil {
				return fmt.Errorf("failed to seed book %s: %w", row.isbn, err)
			}
		}

		s.logger.Info("library seeded",
			logging.Int("authors", len(lib.Authors)),
			logging.Int("books", len(lib.Books)),
		)
		return nil
	})
}

type seedRow struct {
	isbn   string
	values []any // title through reviews
}

func bookRow(book map[string]any, authorIDs map[string]int32) (seedRow, error) {
	isbn, _ := book["isbn"].(string)

	var authorID *int32
	if author, ok := book["author"].(map[string]any); ok {
		name, _ := author["name"].(string)
		id, ok := authorIDs[name]
		if !ok {
			return seedRow{}, fmt.Errorf("book %s references unknown author %q", isbn, name)
		}
		authorID = &id
	}

	var tags []string
	for _, tag := range toAnySlice(book["tags"]) {
		if s, ok := tag.(string); ok {
			tags = append(tags, s)
		}
	}
	if tags == nil {
		tags = []string{}
	}

	reviews := toAnySlice(book["reviews"])
	if reviews == nil {
		reviews = []any{}
	}
	reviewsJSON, err := json.Marshal(reviews)
	if err != nil {
		return seedRow{}, fmt.Errorf("failed to marshal reviews of %s: %w", isbn, err)
	}

	return seedRow{
		isbn: isbn,
		values: []any{
			book["title"], book["pages"], book["rating"], book["published"] == true,
			book["genre"], authorID, tags, reviewsJSON,
		},
	}, nil
}

func toAnySlice(v any) []any {
	items, _ := v.([]any)
	return items
}
