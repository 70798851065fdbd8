package catalog

import "context"

// Page is a window over a newest-first listing. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Repository persists items. Implementations assign ids and timestamps,
// list newest first with ties broken by insertion order, and return an
// error matching ErrNotFound for unknown ids.
type Repository interface {
	Insert(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, kind Kind, id string) (*Item, error)
	FindAll(ctx context.Context, kind Kind, page Page) ([]*Item, error)
	FindRecent(ctx context.Context, kind Kind, limit int) ([]*Item, error)
	// Search matches a case-insensitive substring of one string field.
	Search(ctx context.Context, kind Kind, field, text string) ([]*Item, error)
	// Update loads the item, hands a copy to mutate and stores the result
	// with a fresh UpdatedAt. When mutate fails nothing is written and its
	// error is returned as is.
	Update(ctx context.Context, kind Kind, id string, mutate func(*Item) error) (*Item, error)
	Delete(ctx context.Context, kind Kind, id string) error
	Count(ctx context.Context, kind Kind) (int, error)
}
