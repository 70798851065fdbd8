package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopcms/internal/catalog"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS catalog_items (
	seq            BIGSERIAL,
	id             TEXT PRIMARY KEY,
	kind           TEXT NOT NULL,
	fields         JSONB NOT NULL DEFAULT '{}'::jsonb,
	media          JSONB NOT NULL DEFAULT '{}'::jsonb,
	sub_categories JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS catalog_items_kind_created_idx
	ON catalog_items (kind, created_at DESC, seq DESC);
`

const itemColumns = `id, kind, fields, media, sub_categories, created_at, updated_at`

// Postgres stores every item as a row of JSONB documents in one table.
type Postgres struct {
	db *pgxpool.Pool
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

var _ catalog.Repository = (*Postgres)(nil)

// Migrate creates the table and index when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate catalog_items: %w", err)
	}
	return nil
}

func (p *Postgres) Insert(ctx context.Context, item *catalog.Item) error {
	fields, media, subs, err := encodeItem(item)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	query := `
		INSERT INTO catalog_items (id, kind, fields, media, sub_categories)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at;
	`
	if err := p.db.QueryRow(ctx, query, id, string(item.Kind), fields, media, subs).
		Scan(&item.CreatedAt, &item.UpdatedAt); err != nil {
		return fmt.Errorf("insert %s: %w", item.Kind, err)
	}
	item.ID = id
	if item.Media == nil {
		item.Media = map[string][]string{}
	}
	return nil
}

func (p *Postgres) FindByID(ctx context.Context, kind catalog.Kind, id string) (*catalog.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE kind = $1 AND id = $2;`
	item, err := scanItem(p.db.QueryRow(ctx, query, string(kind), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &catalog.NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return item, nil
}

func (p *Postgres) FindAll(ctx context.Context, kind catalog.Kind, page catalog.Page) ([]*catalog.Item, error) {
	var limit *int
	if page.Limit > 0 {
		limit = &page.Limit
	}
	offset := max(page.Offset, 0)

	query := `
		SELECT ` + itemColumns + `
		FROM catalog_items
		WHERE kind = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2 OFFSET $3;
	`
	return p.list(ctx, query, string(kind), limit, offset)
}

func (p *Postgres) FindRecent(ctx context.Context, kind catalog.Kind, limit int) ([]*catalog.Item, error) {
	if limit <= 0 {
		return []*catalog.Item{}, nil
	}
	return p.FindAll(ctx, kind, catalog.Page{Limit: limit})
}

func (p *Postgres) Search(ctx context.Context, kind catalog.Kind, field, text string) ([]*catalog.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM catalog_items
		WHERE kind = $1 AND fields->>$2 ILIKE $3
		ORDER BY created_at DESC, seq DESC;
	`
	return p.list(ctx, query, string(kind), field, "%"+escapeLike(text)+"%")
}

func (p *Postgres) Update(ctx context.Context, kind catalog.Kind, id string, mutate func(*catalog.Item) error) (*catalog.Item, error) {
	var updated *catalog.Item
	err := p.withTx(ctx, func(tx pgx.Tx) error {
		query := `SELECT ` + itemColumns + ` FROM catalog_items WHERE kind = $1 AND id = $2 FOR UPDATE;`
		cur, err := scanItem(tx.QueryRow(ctx, query, string(kind), id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return &catalog.NotFoundError{Kind: kind, ID: id}
			}
			return fmt.Errorf("lock %s: %w", kind, err)
		}

		if err := mutate(cur); err != nil {
			return err
		}

		fields, media, subs, err := encodeItem(cur)
		if err != nil {
			return err
		}
		update := `
			UPDATE catalog_items
			SET fields = $3, media = $4, sub_categories = $5, updated_at = now()
			WHERE kind = $1 AND id = $2
			RETURNING updated_at;
		`
		if err := tx.QueryRow(ctx, update, string(kind), id, fields, media, subs).Scan(&cur.UpdatedAt); err != nil {
			return fmt.Errorf("update %s: %w", kind, err)
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (p *Postgres) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM catalog_items WHERE kind = $1 AND id = $2;`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return &catalog.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func (p *Postgres) Count(ctx context.Context, kind catalog.Kind) (int, error) {
	var n int
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_items WHERE kind = $1;`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

func (p *Postgres) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // no-op once committed
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (p *Postgres) list(ctx context.Context, query string, args ...any) ([]*catalog.Item, error) {
	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []*catalog.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

func scanItem(row pgx.Row) (*catalog.Item, error) {
	var (
		item                catalog.Item
		kind                string
		fields, media, subs []byte
	)
	if err := row.Scan(&item.ID, &kind, &fields, &media, &subs, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.Kind = catalog.Kind(kind)
	if err := json.Unmarshal(fields, &item.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if err := json.Unmarshal(media, &item.Media); err != nil {
		return nil, fmt.Errorf("decode media: %w", err)
	}
	if err := json.Unmarshal(subs, &item.SubCategories); err != nil {
		return nil, fmt.Errorf("decode sub categories: %w", err)
	}
	if item.Fields == nil {
		item.Fields = catalog.Fields{}
	}
	if item.Media == nil {
		item.Media = map[string][]string{}
	}
	return &item, nil
}

func encodeItem(item *catalog.Item) (fields, media, subs []byte, err error) {
	if fields, err = json.Marshal(nonNilFields(item.Fields)); err != nil {
		return nil, nil, nil, fmt.Errorf("encode fields: %w", err)
	}
	m := item.Media
	if m == nil {
		m = map[string][]string{}
	}
	if media, err = json.Marshal(m); err != nil {
		return nil, nil, nil, fmt.Errorf("encode media: %w", err)
	}
	s := item.SubCategories
	if s == nil {
		s = []catalog.SubCategory{}
	}
	if subs, err = json.Marshal(s); err != nil {
		return nil, nil, nil, fmt.Errorf("encode sub categories: %w", err)
	}
	return fields, media, subs, nil
}

func nonNilFields(f catalog.Fields) catalog.Fields {
	if f == nil {
		return catalog.Fields{}
	}
	return f
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes text match literally inside a LIKE pattern.
func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}
