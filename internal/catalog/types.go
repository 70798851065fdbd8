package catalog

import (
	"encoding/json"
	"time"
)

// Kind names an entity type stored in the catalog.
type Kind string

const (
	KindProduct       Kind = "product"
	KindCategory      Kind = "category"
	KindBlog          Kind = "blog"
	KindBanner        Kind = "banner"
	KindCollaboration Kind = "collaboration"
)

// Collection is the plural name used for storage collections and media folders.
func (k Kind) Collection() string {
	switch k {
	case KindCategory:
		return "categories"
	default:
		return string(k) + "s"
	}
}

// CategoryName is how a Product points at its Category: by the category's
// name, not its id. Renaming a category does not touch its products.
type CategoryName string

// Fields holds the scalar values of an item, keyed by field name.
// Values are string, float64 or bool.
type Fields map[string]any

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

type SubCategory struct {
	ID       string `json:"_id" bson:"_id"`
	Name     string `json:"name" bson:"name"`
	IsPublic bool   `json:"isPublic" bson:"isPublic"`
}

// Item is a single catalog record: a product, category, blog, banner or
// collaboration submission.
type Item struct {
	ID            string
	Kind          Kind
	Fields        Fields
	Media         map[string][]string // slot name -> references, in upload order
	SubCategories []SubCategory       // categories only
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy so callers can mutate without affecting the original.
func (it *Item) Clone() *Item {
	out := *it
	out.Fields = it.Fields.Clone()
	out.Media = make(map[string][]string, len(it.Media))
	for slot, refs := range it.Media {
		out.Media[slot] = append([]string(nil), refs...)
	}
	if it.SubCategories != nil {
		out.SubCategories = append([]SubCategory{}, it.SubCategories...)
	}
	return &out
}

// References returns every media reference held by the item, in slot order.
func (it *Item) References() []string {
	var refs []string
	for _, slot := range MustSchema(it.Kind).Slots {
		refs = append(refs, it.Media[slot.Name]...)
	}
	return refs
}

// String returns a string field, or "" when absent.
func (it *Item) String(name string) string {
	s, _ := it.Fields[name].(string)
	return s
}

// Category returns the denormalized category reference of a product.
func (it *Item) Category() CategoryName {
	return CategoryName(it.String("category"))
}

// Document flattens the item into the shape clients consume:
// _id, every field, every filled slot, subCategories and timestamps.
func (it *Item) Document() map[string]any {
	doc := make(map[string]any, len(it.Fields)+len(it.Media)+4)
	doc["_id"] = it.ID
	for k, v := range it.Fields {
		doc[k] = v
	}
	schema := MustSchema(it.Kind)
	for _, slot := range schema.Slots {
		refs := it.Media[slot.Name]
		switch {
		case slot.Multi():
			if refs == nil {
				refs = []string{}
			}
			doc[slot.Name] = refs
		case len(refs) > 0:
			doc[slot.Name] = refs[0]
		}
	}
	if schema.SubCategories {
		subs := it.SubCategories
		if subs == nil {
			subs = []SubCategory{}
		}
		doc["subCategories"] = subs
	}
	doc["createdAt"] = it.CreatedAt
	doc["updatedAt"] = it.UpdatedAt
	return doc
}

// Project keeps only the named keys of Document. "_id" is always kept.
func (it *Item) Project(keys ...string) map[string]any {
	doc := it.Document()
	out := map[string]any{"_id": it.ID}
	for _, k := range keys {
		if v, ok := doc[k]; ok {
			out[k] = v
		}
	}
	return out
}

func (it *Item) MarshalJSON() ([]byte, error) {
	return json.Marshal(it.Document())
}
