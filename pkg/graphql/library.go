package graphql

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-filtering/pkg/filtering"
	"github.com/graphql-go/graphql"
)

// Library is the in-memory data behind the demo schema. Books and authors
// are plain maps so the default resolvers and the predicate compiler can
// read them directly.
type Library struct {
	Books   []map[string]any
	Authors []map[string]any
}

// DemoLibrary returns a small fixed data set.
func DemoLibrary() *Library {
	tolkien := map[string]any{"name": "J.R.R. Tolkien", "born": 1892}
	leGuin := map[string]any{"name": "Ursula K. Le Guin", "born": 1929}
	herbert := map[string]any{"name": "Frank Herbert", "born": 1920}

	return &Library{
		Authors: []map[string]any{tolkien, leGuin, herbert},
		Books: []map[string]any{
			{
				"isbn": "978-0261102385", "title": "The Lord of the Rings", "pages": 1178, "rating": 4.5,
				"published": true, "genre": "FANTASY", "author": tolkien,
				"tags":    []any{"epic", "quest"},
				"reviews": []any{map[string]any{"stars": 5, "text": "timeless"}, map[string]any{"stars": 4, "text": "long"}},
			},
			{
				"isbn": "978-0261102217", "title": "The Hobbit", "pages": 310, "rating": 4.3,
				"published": true, "genre": "FANTASY", "author": tolkien,
				"tags":    []any{"quest"},
				"reviews": []any{map[string]any{"stars": 5, "text": "charming"}},
			},
			{
				"isbn": "978-0441478125", "title": "The Left Hand of Darkness", "pages": 304, "rating": 4.1,
				"published": true, "genre": "SCIENCE_FICTION", "author": leGuin,
				"tags":    []any{"anthropology"},
				"reviews": []any{},
			},
			{
				"isbn": "978-0441172719", "title": "Dune", "pages": 688, "rating": 4.6,
				"published": true, "genre": "SCIENCE_FICTION", "author": herbert,
				"tags":    []any{"epic", "desert"},
				"reviews": []any{map[string]any{"stars": 3, "text": "dense"}, map[string]any{"stars": 5, "text": "spice"}},
			},
			{
				"isbn": "000-0000000000", "title": "Untitled Draft", "pages": 12,
				"published": false, "genre": "FANTASY",
				"tags":    []any{},
				"reviews": []any{},
			},
		},
	}
}

// BooksBy returns the books whose author has the given name.
func (l *Library) BooksBy(name string) []map[string]any {
	var out []map[string]any
	for _, book := range l.Books {
		if author, ok := book["author"].(map[string]any); ok && author["name"] == name {
			out = append(out, book)
		}
	}
	return out
}

// LibraryTypes holds the object types of the demo schema.
type LibraryTypes struct {
	Genre  *graphql.Enum
	Review *graphql.Object
	Author *graphql.Object
	Book   *graphql.Object
}

// NewLibraryTypes builds the Book/Author/Review object types. Author.books
// is filterable through conv.
func NewLibraryTypes(conv *Convention, lib *Library) *LibraryTypes {
	t := &LibraryTypes{}

	t.Genre = graphql.NewEnum(graphql.EnumConfig{
		Name: "Genre",
		Values: graphql.EnumValueConfigMap{
			"FANTASY":         &graphql.EnumValueConfig{Value: "FANTASY"},
			"SCIENCE_FICTION": &graphql.EnumValueConfig{Value: "SCIENCE_FICTION"},
			"HISTORY":         &graphql.EnumValueConfig{Value: "HISTORY"},
		},
	})

	t.Review = graphql.NewObject(graphql.ObjectConfig{
		Name: "Review",
		Fields: graphql.Fields{
			"stars": &graphql.Field{Type: graphql.Int},
			"text":  &graphql.Field{Type: graphql.String},
		},
	})

	t.Author = graphql.NewObject(graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"name": &graphql.Field{Type: graphql.String},
				"born": &graphql.Field{Type: graphql.Int},
				"books": conv.UseFiltering(&graphql.Field{
					Type: graphql.NewList(t.Book),
					Resolve: func(p graphql.ResolveParams) (any, error) {
						author, ok := p.Source.(map[string]any)
						if !ok {
							return nil, fmt.Errorf("unexpected author source %T", p.Source)
						}
						name, _ := author["name"].(string)
						return lib.BooksBy(name), nil
					},
				}, t.Book),
			}
		}),
	})

	t.Book = graphql.NewObject(graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"isbn":      &graphql.Field{Type: graphql.ID},
				"title":     &graphql.Field{Type: graphql.String},
				"pages":     &graphql.Field{Type: graphql.Int},
				"rating":    &graphql.Field{Type: graphql.Float},
				"published": &graphql.Field{Type: graphql.Boolean},
				"genre":     &graphql.Field{Type: t.Genre},
				"author":    &graphql.Field{Type: t.Author},
				"tags":      &graphql.Field{Type: graphql.NewList(graphql.String)},
				"reviews":   &graphql.Field{Type: graphql.NewList(t.Review)},
			}
		}),
	})

	return t
}

// BookFinder loads the books matching a filter from an external source.
type BookFinder func(ctx context.Context, where *filtering.Node) ([]map[string]any, error)

// LibraryOption configures NewLibrarySchema.
type LibraryOption func(*libraryOptions)

type libraryOptions struct {
	findBooks BookFinder
}

// WithBookFinder serves Query.books from find instead of the in-memory
// library. The resolver reads the filter context to pass the filter on,
// so the result is not filtered again in memory.
func WithBookFinder(find BookFinder) LibraryOption {
	return func(o *libraryOptions) {
		o.findBooks = find
	}
}

// NewLibrarySchema builds the demo schema with filterable books and authors.
func NewLibrarySchema(conv *Convention, lib *Library, opts ...LibraryOption) (graphql.Schema, error) {
	var o libraryOptions
	for _, opt := range opts {
		opt(&o)
	}
	types := NewLibraryTypes(conv, lib)

	books := func(p graphql.ResolveParams) (any, error) {
		return lib.Books, nil
	}
	if o.findBooks != nil {
		books = func(p graphql.ResolveParams) (any, error) {
			where, err := GetFilterContext(p).Root()
			if err != nil {
				return nil, err
			}
			return o.findBooks(p.Context, where)
		}
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"books": conv.UseFiltering(&graphql.Field{
				Type:    graphql.NewList(types.Book),
				Resolve: books,
			}, types.Book),
			"authors": conv.UseFiltering(&graphql.Field{
				Type: graphql.NewList(types.Author),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return lib.Authors, nil
				},
			}, types.Author),
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("failed to create schema: %w", err)
	}

	return schema, nil
}
