package catalog

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shopcms/internal/media"
)

const defaultUploadTimeout = 20 * time.Second

// Input is a validated create or update request.
type Input struct {
	Fields Fields
	Media  map[string][]media.Blob
	// SubCategories replaces a category's whole list when non-nil.
	SubCategories []SubCategory
}

// Reconciler turns validated requests into persisted items and keeps the
// media host in step: new blobs are uploaded before the write, superseded
// references are released after it.
type Reconciler struct {
	repo          Repository
	media         media.Store
	releaser      media.Releaser
	logger        *zap.SugaredLogger
	uploadTimeout time.Duration
}

type Option func(*Reconciler)

// WithUploadTimeout bounds every single upload. Expiry counts as a failed upload.
func WithUploadTimeout(d time.Duration) Option {
	return func(rc *Reconciler) {
		if d > 0 {
			rc.uploadTimeout = d
		}
	}
}

func NewReconciler(repo Repository, store media.Store, releaser media.Releaser, logger *zap.SugaredLogger, opts ...Option) *Reconciler {
	rc := &Reconciler{
		repo:          repo,
		media:         store,
		releaser:      releaser,
		logger:        logger,
		uploadTimeout: defaultUploadTimeout,
	}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// Create uploads the request's media and inserts a new item of kind.
func (rc *Reconciler) Create(ctx context.Context, kind Kind, in Input) (*Item, error) {
	schema, ok := SchemaFor(kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}
	if err := checkSlots(schema, in.Media, true); err != nil {
		return nil, err
	}

	refs, err := rc.upload(ctx, schema, in.Media)
	if err != nil {
		return nil, err
	}

	item := &Item{
		Kind:   kind,
		Fields: in.Fields.Clone(),
		Media:  refs,
	}
	for name, v := range schema.Defaults {
		if _, ok := item.Fields[name]; !ok {
			item.Fields[name] = v
		}
	}
	if schema.SubCategories {
		item.SubCategories = append([]SubCategory{}, in.SubCategories...)
	}

	if err := rc.repo.Insert(ctx, item); err != nil {
		rc.discard(kind, "insert failed", refs)
		return nil, &PersistError{Op: "insert " + string(kind), Err: err}
	}
	return item, nil
}

// Update applies the changed fields and replaced slots of in to existing.
// It fails with ErrNoOpUpdate when nothing would change.
func (rc *Reconciler) Update(ctx context.Context, existing *Item, in Input) (*Item, error) {
	schema, ok := SchemaFor(existing.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", existing.Kind)
	}
	if !schema.Updatable {
		return nil, ErrNotUpdatable
	}
	if err := checkSlots(schema, in.Media, false); err != nil {
		return nil, err
	}

	newRefs, err := rc.upload(ctx, schema, in.Media)
	if err != nil {
		return nil, err
	}

	var superseded []string
	updated, err := rc.repo.Update(ctx, existing.Kind, existing.ID, func(cur *Item) error {
		superseded = superseded[:0]
		if cur.Fields == nil {
			cur.Fields = Fields{}
		}
		if cur.Media == nil {
			cur.Media = map[string][]string{}
		}

		changed := false
		for name, v := range in.Fields {
			if old, ok := cur.Fields[name]; ok && sameValue(old, v) {
				continue
			}
			cur.Fields[name] = v
			changed = true
		}

		if schema.SubCategories && in.SubCategories != nil && !sameSubCategories(cur.SubCategories, in.SubCategories) {
			cur.SubCategories = append([]SubCategory{}, in.SubCategories...)
			changed = true
		}

		for _, slot := range schema.Slots {
			refs, ok := newRefs[slot.Name]
			if !ok {
				continue
			}
			superseded = append(superseded, cur.Media[slot.Name]...)
			cur.Media[slot.Name] = refs
			changed = true
		}

		if !changed {
			return ErrNoOpUpdate
		}
		return nil
	})
	if err != nil {
		rc.discard(existing.Kind, "update failed", newRefs)
		switch {
		case errors.Is(err, ErrNoOpUpdate):
			return nil, ErrNoOpUpdate
		case errors.Is(err, ErrNotFound):
			return nil, &NotFoundError{Kind: existing.Kind, ID: existing.ID}
		default:
			return nil, &PersistError{Op: "update " + string(existing.Kind), Err: err}
		}
	}

	rc.releaser.Release(superseded...)
	return updated, nil
}

// Delete removes the item and releases all of its media. The deleted item
// is returned.
func (rc *Reconciler) Delete(ctx context.Context, kind Kind, id string) (*Item, error) {
	item, err := rc.repo.FindByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{Kind: kind, ID: id}
		}
		return nil, fmt.Errorf("find %s %s: %w", kind, id, err)
	}

	if err := rc.repo.Delete(ctx, kind, id); err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrDeleteFailed, kind, id, err)
	}

	rc.releaser.Release(item.References()...)
	return item, nil
}

// upload sends every blob to the media store concurrently. The result keeps
// slot order and, within a slot, the order the blobs were given in. On
// failure everything uploaded by this call is released again.
func (rc *Reconciler) upload(ctx context.Context, schema Schema, blobs map[string][]media.Blob) (map[string][]string, error) {
	refs := make(map[string][]string)
	for _, slot := range schema.Slots {
		if n := len(blobs[slot.Name]); n > 0 {
			refs[slot.Name] = make([]string, n)
		}
	}
	if len(refs) == 0 {
		return refs, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, slot := range schema.Slots {
		out, ok := refs[slot.Name]
		if !ok {
			continue
		}
		for i, blob := range blobs[slot.Name] {
			g.Go(func() error {
				uctx, cancel := context.WithTimeout(gctx, rc.uploadTimeout)
				defer cancel()

				ref, err := rc.media.Upload(uctx, schema.Kind.Collection(), blob)
				if err != nil {
					return &MediaUploadError{Slot: slot.Name, Err: err}
				}
				out[i] = ref
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		rc.discard(schema.Kind, "upload failed", refs)
		return nil, err
	}
	return refs, nil
}

// discard releases references that were uploaded but never stored.
func (rc *Reconciler) discard(kind Kind, reason string, refs map[string][]string) {
	var orphans []string
	for _, slotRefs := range refs {
		for _, ref := range slotRefs {
			if ref != "" {
				orphans = append(orphans, ref)
			}
		}
	}
	if len(orphans) == 0 {
		return
	}
	rc.logger.Warnw("releasing uploaded media", "kind", kind, "reason", reason, "count", len(orphans))
	rc.releaser.Release(orphans...)
}

func checkSlots(schema Schema, blobs map[string][]media.Blob, create bool) error {
	names := make([]string, 0, len(blobs))
	for name := range blobs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		slot, ok := schema.Slot(name)
		if !ok {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("%q is not allowed", name)}
		}
		if n := len(blobs[name]); n > slot.Max {
			return &ValidationError{Field: name, Reason: fmt.Sprintf("%q must contain less than or equal to %d items", name, slot.Max)}
		}
	}

	for _, slot := range schema.Slots {
		n := len(blobs[slot.Name])
		switch {
		case create && slot.Required() && n == 0:
			return &MissingMediaError{Slot: slot.Name}
		case n > 0 && n < slot.Min:
			return &ValidationError{Field: slot.Name, Reason: fmt.Sprintf("%q must contain at least %d items", slot.Name, slot.Min)}
		}
	}
	return nil
}

func sameValue(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func sameSubCategories(a, b []SubCategory) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].IsPublic != b[i].IsPublic {
			return false
		}
	}
	return true
}
