package catalog

import "fmt"

// Slot describes one named media position on an item.
type Slot struct {
	Name string
	Min  int // 0 means optional
	Max  int // 1 means a single reference
}

func (s Slot) Required() bool { return s.Min > 0 }

func (s Slot) Multi() bool { return s.Max > 1 }

// Schema is the static shape of a Kind: its media slots, the defaults
// applied on create, and the field used by text search.
type Schema struct {
	Kind          Kind
	Slots         []Slot
	Defaults      Fields
	SearchField   string
	Updatable     bool
	SubCategories bool
}

// Slot looks up a slot by name.
func (s Schema) Slot(name string) (Slot, bool) {
	for _, slot := range s.Slots {
		if slot.Name == name {
			return slot, true
		}
	}
	return Slot{}, false
}

var schemas = map[Kind]Schema{
	KindProduct: {
		Kind: KindProduct,
		Slots: []Slot{
			{Name: "thumbnail", Min: 0, Max: 1},
			{Name: "images", Min: 1, Max: 5},
			{Name: "productDescriptionImage", Min: 0, Max: 1},
		},
		Defaults:    Fields{"isPublic": true},
		SearchField: "name",
		Updatable:   true,
	},
	KindCategory: {
		Kind:          KindCategory,
		Slots:         []Slot{{Name: "thumbnail", Min: 1, Max: 1}},
		Defaults:      Fields{"isPublic": true},
		SearchField:   "name",
		Updatable:     true,
		SubCategories: true,
	},
	KindBlog: {
		Kind: KindBlog,
		Slots: []Slot{
			{Name: "thumbnail", Min: 1, Max: 1},
			{Name: "detailImage", Min: 0, Max: 1},
		},
		Defaults:    Fields{"isPublic": true},
		SearchField: "title",
		Updatable:   true,
	},
	KindBanner: {
		Kind: KindBanner,
		Slots: []Slot{
			{Name: "imageOne", Min: 1, Max: 1},
			{Name: "imageTwo", Min: 1, Max: 1},
			{Name: "imageThree", Min: 1, Max: 1},
		},
		Updatable: true,
	},
	KindCollaboration: {
		Kind:        KindCollaboration,
		SearchField: "email",
	},
}

// SchemaFor returns the schema registered for kind.
func SchemaFor(kind Kind) (Schema, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// MustSchema is SchemaFor for kinds known at compile time.
func MustSchema(kind Kind) Schema {
	s, ok := schemas[kind]
	if !ok {
		panic(fmt.Sprintf("catalog: no schema for kind %q", kind))
	}
	return s
}

// Kinds lists every registered kind.
func Kinds() []Kind {
	return []Kind{KindProduct, KindCategory, KindBlog, KindBanner, KindCollaboration}
}
