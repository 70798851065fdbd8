package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopcms/internal/catalog"
)

// Mongo keeps one collection per kind, named by Kind.Collection.
type Mongo struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db, now: time.Now}
}

var _ catalog.Repository = (*Mongo)(nil)

type mongoDoc struct {
	ID            primitive.ObjectID    `bson:"_id,omitempty"`
	Fields        bson.M                `bson:"fields"`
	Media         map[string][]string   `bson:"media"`
	SubCategories []catalog.SubCategory `bson:"subCategories,omitempty"`
	CreatedAt     time.Time             `bson:"createdAt"`
	UpdatedAt     time.Time             `bson:"updatedAt"`
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// Migrate creates the listing and search indexes.
func (m *Mongo) Migrate(ctx context.Context) error {
	for _, kind := range catalog.Kinds() {
		models := []mongo.IndexModel{{Keys: newestFirst}}
		if field := catalog.MustSchema(kind).SearchField; field != "" {
			models = append(models, mongo.IndexModel{Keys: bson.D{{Key: "fields." + field, Value: 1}}})
		}
		if _, err := m.coll(kind).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", kind.Collection(), err)
		}
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, item *catalog.Item) error {
	// BSON dates carry milliseconds only
	now := m.now().UTC().Truncate(time.Millisecond)
	doc := toMongoDoc(item)
	doc.ID = primitive.NewObjectID()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := m.coll(item.Kind).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert %s: %w", item.Kind, err)
	}
	item.ID = doc.ID.Hex()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Media == nil {
		item.Media = map[string][]string{}
	}
	return nil
}

func (m *Mongo) FindByID(ctx context.Context, kind catalog.Kind, id string) (*catalog.Item, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &catalog.NotFoundError{Kind: kind, ID: id}
	}

	var doc mongoDoc
	if err := m.coll(kind).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &catalog.NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return doc.item(kind), nil
}

func (m *Mongo) FindAll(ctx context.Context, kind catalog.Kind, page catalog.Page) ([]*catalog.Item, error) {
	opts := options.Find().SetSort(newestFirst)
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	if page.Offset > 0 {
		opts.SetSkip(int64(page.Offset))
	}
	return m.find(ctx, kind, bson.M{}, opts)
}

func (m *Mongo) FindRecent(ctx context.Context, kind catalog.Kind, limit int) ([]*catalog.Item, error) {
	if limit <= 0 {
		return []*catalog.Item{}, nil
	}
	return m.FindAll(ctx, kind, catalog.Page{Limit: limit})
}

func (m *Mongo) Search(ctx context.Context, kind catalog.Kind, field, text string) ([]*catalog.Item, error) {
	filter := bson.M{
		"fields." + field: primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"},
	}
	return m.find(ctx, kind, filter, options.Find().SetSort(newestFirst))
}

func (m *Mongo) Update(ctx context.Context, kind catalog.Kind, id string, mutate func(*catalog.Item) error) (*catalog.Item, error) {
	cur, err := m.FindByID(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	createdAt := cur.CreatedAt
	if err := mutate(cur); err != nil {
		return nil, err
	}
	cur.ID = id
	cur.Kind = kind
	cur.CreatedAt = createdAt
	cur.UpdatedAt = m.now().UTC().Truncate(time.Millisecond)

	doc := toMongoDoc(cur)
	doc.ID, _ = primitive.ObjectIDFromHex(id)

	res, err := m.coll(kind).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return nil, &catalog.NotFoundError{Kind: kind, ID: id}
	}
	return cur, nil
}

func (m *Mongo) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return &catalog.NotFoundError{Kind: kind, ID: id}
	}

	res, err := m.coll(kind).DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if res.DeletedCount == 0 {
		return &catalog.NotFoundError{Kind: kind, ID: id}
	}
	return nil
}

func (m *Mongo) Count(ctx context.Context, kind catalog.Kind) (int, error) {
	n, err := m.coll(kind).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return int(n), nil
}

func (m *Mongo) coll(kind catalog.Kind) *mongo.Collection {
	return m.db.Collection(kind.Collection())
}

func (m *Mongo) find(ctx context.Context, kind catalog.Kind, filter any, opts *options.FindOptions) ([]*catalog.Item, error) {
	cursor, err := m.coll(kind).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	defer cursor.Close(ctx)

	items := []*catalog.Item{}
	for cursor.Next(ctx) {
		var doc mongoDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		items = append(items, doc.item(kind))
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return items, nil
}

func toMongoDoc(item *catalog.Item) mongoDoc {
	doc := mongoDoc{
		Fields:        bson.M{},
		Media:         map[string][]string{},
		SubCategories: item.SubCategories,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
	for k, v := range item.Fields {
		doc.Fields[k] = v
	}
	for slot, refs := range item.Media {
		doc.Media[slot] = refs
	}
	return doc
}

func (d mongoDoc) item(kind catalog.Kind) *catalog.Item {
	item := &catalog.Item{
		ID:            d.ID.Hex(),
		Kind:          kind,
		Fields:        catalog.Fields{},
		Media:         map[string][]string{},
		SubCategories: d.SubCategories,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
	for k, v := range d.Fields {
		item.Fields[k] = normalizeBSON(v)
	}
	for slot, refs := range d.Media {
		item.Media[slot] = refs
	}
	return item
}

// normalizeBSON maps decoded numbers onto float64 like the rest of the catalog.
func normalizeBSON(v any) any {
	switch n := v.(type) {
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return n.String()
		}
		return f
	default:
		return v
	}
}
