package catalog_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopcms/internal/catalog"
	"shopcms/internal/media"
	"shopcms/internal/media/mediatest"
	"shopcms/internal/store"
)

type fixture struct {
	repo  catalog.Repository
	media *mediatest.Store
	rc    *catalog.Reconciler
}

func newFixture(t *testing.T, repo catalog.Repository, opts ...catalog.Option) fixture {
	t.Helper()
	if repo == nil {
		repo = store.NewMemory()
	}
	ms := mediatest.NewStore()
	rc := catalog.NewReconciler(repo, ms, mediatest.Releaser{Store: ms}, zap.NewNop().Sugar(), opts...)
	return fixture{repo: repo, media: ms, rc: rc}
}

func redMugInput() catalog.Input {
	return catalog.Input{
		Fields: catalog.Fields{
			"name":          "Red Mug",
			"productDetail": "Ceramic, 350ml",
			"affiliateLink": "https://example.com/mug",
			"category":      "Kitchen",
			"size":          "M",
			"sellingPrice":  9.0,
			"originalPrice": 10.0,
			"discount":      10.0,
		},
		Media: map[string][]media.Blob{
			"images": {mediatest.Blob("a.jpg")},
		},
	}
}

func TestCreateRedMug(t *testing.T) {
	f := newFixture(t, nil)

	item, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)

	require.Len(t, item.Media["images"], 1)
	assert.True(t, strings.HasPrefix(item.Media["images"][0], "https://media.test/products/a-"))
	assert.Equal(t, true, item.Fields["isPublic"])
	assert.Equal(t, catalog.CategoryName("Kitchen"), item.Category())

	stored, err := f.repo.FindByID(context.Background(), catalog.KindProduct, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Media, stored.Media)
}

func TestCreateKeepsSlotOrder(t *testing.T) {
	f := newFixture(t, nil)
	in := redMugInput()
	in.Media["images"] = []media.Blob{
		mediatest.Blob("1.jpg"), mediatest.Blob("2.jpg"), mediatest.Blob("3.jpg"),
		mediatest.Blob("4.jpg"), mediatest.Blob("5.jpg"),
	}
	in.Media["thumbnail"] = []media.Blob{mediatest.Blob("thumb.jpg")}

	item, err := f.rc.Create(context.Background(), catalog.KindProduct, in)
	require.NoError(t, err)

	require.Len(t, item.Media["images"], 5)
	for i, ref := range item.Media["images"] {
		assert.Contains(t, ref, "/"+string(rune('1'+i))+"-")
	}
	assert.Len(t, item.Media["thumbnail"], 1)
	assert.Len(t, item.References(), 6)
	assert.Equal(t, item.Media["thumbnail"][0], item.References()[0])
}

func TestCreateMissingRequiredSlot(t *testing.T) {
	f := newFixture(t, nil)
	in := redMugInput()
	delete(in.Media, "images")

	_, err := f.rc.Create(context.Background(), catalog.KindProduct, in)

	var missing *catalog.MissingMediaError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "images", missing.Slot)
	assert.Empty(t, f.media.Uploaded())

	n, err := f.repo.Count(context.Background(), catalog.KindProduct)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateRejectsBadSlots(t *testing.T) {
	tests := []struct {
		name   string
		modify func(map[string][]media.Blob)
		reason string
	}{
		{
			name: "too many images",
			modify: func(m map[string][]media.Blob) {
				m["images"] = make([]media.Blob, 6)
			},
			reason: `"images" must contain less than or equal to 5 items`,
		},
		{
			name: "unknown slot",
			modify: func(m map[string][]media.Blob) {
				m["poster"] = []media.Blob{mediatest.Blob("p.jpg")}
			},
			reason: `"poster" is not allowed`,
		},
		{
			name: "two thumbnails",
			modify: func(m map[string][]media.Blob) {
				m["thumbnail"] = []media.Blob{mediatest.Blob("a.jpg"), mediatest.Blob("b.jpg")}
			},
			reason: `"thumbnail" must contain less than or equal to 1 items`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			in := redMugInput()
			tt.modify(in.Media)

			_, err := f.rc.Create(context.Background(), catalog.KindProduct, in)

			var verr *catalog.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.reason, verr.Reason)
			assert.Empty(t, f.media.Uploaded())
		})
	}
}

func TestCreateUploadFailureCompensates(t *testing.T) {
	f := newFixture(t, nil)
	f.media.FailUploads["bad.jpg"] = errors.New("host down")

	in := redMugInput()
	in.Media["images"] = []media.Blob{mediatest.Blob("ok.jpg"), mediatest.Blob("bad.jpg")}

	_, err := f.rc.Create(context.Background(), catalog.KindProduct, in)

	var upErr *catalog.MediaUploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "images", upErr.Slot)
	assert.Empty(t, f.media.Live(), "uploaded blobs must be released")

	n, err := f.repo.Count(context.Background(), catalog.KindProduct)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type blockingStore struct{ media.Store }

func (blockingStore) Upload(ctx context.Context, folder string, blob media.Blob) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestCreateUploadTimeout(t *testing.T) {
	ms := mediatest.NewStore()
	rc := catalog.NewReconciler(store.NewMemory(), blockingStore{ms}, mediatest.Releaser{Store: ms},
		zap.NewNop().Sugar(), catalog.WithUploadTimeout(10*time.Millisecond))

	_, err := rc.Create(context.Background(), catalog.KindProduct, redMugInput())

	var upErr *catalog.MediaUploadError
	require.ErrorAs(t, err, &upErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type failingRepo struct {
	*store.Memory
	insertErr error
	deleteErr error
	updateErr error
}

func (r *failingRepo) Insert(ctx context.Context, item *catalog.Item) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	return r.Memory.Insert(ctx, item)
}

func (r *failingRepo) Delete(ctx context.Context, kind catalog.Kind, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Memory.Delete(ctx, kind, id)
}

func (r *failingRepo) Update(ctx context.Context, kind catalog.Kind, id string, mutate func(*catalog.Item) error) (*catalog.Item, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	return r.Memory.Update(ctx, kind, id, mutate)
}

func TestCreatePersistFailureCompensates(t *testing.T) {
	repo := &failingRepo{Memory: store.NewMemory(), insertErr: errors.New("disk full")}
	f := newFixture(t, repo)

	_, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())

	assert.ErrorIs(t, err, catalog.ErrPersistFailed)
	var perr *catalog.PersistError
	require.ErrorAs(t, err, &perr)
	assert.Len(t, f.media.Uploaded(), 1)
	assert.Empty(t, f.media.Live())
}

func TestUpdateDiscountOnlyKeepsSellingPrice(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)

	updated, err := f.rc.Update(context.Background(), created, catalog.Input{
		Fields: catalog.Fields{"discount": 20.0},
	})
	require.NoError(t, err)

	assert.Equal(t, 20.0, updated.Fields["discount"])
	assert.Equal(t, 9.0, updated.Fields["sellingPrice"])
	assert.Equal(t, created.Media["images"], updated.Media["images"])
	assert.Empty(t, f.media.Deleted())
}

func TestUpdateNoOp(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemory().WithClock(func() time.Time { return now })
	f := newFixture(t, mem)

	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = f.rc.Update(context.Background(), created, catalog.Input{
		Fields: catalog.Fields{"name": "Red Mug", "discount": 10.0},
	})
	assert.ErrorIs(t, err, catalog.ErrNoOpUpdate)

	_, err = f.rc.Update(context.Background(), created, catalog.Input{})
	assert.ErrorIs(t, err, catalog.ErrNoOpUpdate)

	stored, err := mem.FindByID(context.Background(), catalog.KindProduct, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, created.Fields, stored.Fields)
}

func TestUpdateReplacesSlotAndReleasesOldOnce(t *testing.T) {
	f := newFixture(t, nil)
	in := redMugInput()
	in.Media["thumbnail"] = []media.Blob{mediatest.Blob("old-thumb.jpg")}
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, in)
	require.NoError(t, err)
	oldThumb := created.Media["thumbnail"][0]
	oldImages := created.Media["images"]

	updated, err := f.rc.Update(context.Background(), created, catalog.Input{
		Media: map[string][]media.Blob{"thumbnail": {mediatest.Blob("new-thumb.jpg")}},
	})
	require.NoError(t, err)

	require.Len(t, updated.Media["thumbnail"], 1)
	assert.NotEqual(t, oldThumb, updated.Media["thumbnail"][0])
	assert.Equal(t, oldImages, updated.Media["images"])
	assert.Equal(t, 1, f.media.DeleteCount(oldThumb))
	assert.Equal(t, []string{oldThumb}, f.media.Deleted())
}

func TestUpdateUploadFailureMutatesNothing(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)
	f.media.FailUploads["bad.jpg"] = errors.New("host down")

	_, err = f.rc.Update(context.Background(), created, catalog.Input{
		Fields: catalog.Fields{"name": "Blue Mug"},
		Media: map[string][]media.Blob{
			"thumbnail": {mediatest.Blob("fine.jpg")},
			"images":    {mediatest.Blob("bad.jpg")},
		},
	})

	var upErr *catalog.MediaUploadError
	require.ErrorAs(t, err, &upErr)

	stored, err := f.repo.FindByID(context.Background(), catalog.KindProduct, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Red Mug", stored.String("name"))
	assert.Equal(t, created.Media, stored.Media)
	assert.ElementsMatch(t, created.References(), f.media.Live())
}

func TestUpdatePersistFailureReleasesNewUploads(t *testing.T) {
	repo := &failingRepo{Memory: store.NewMemory()}
	f := newFixture(t, repo)
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)

	repo.updateErr = errors.New("connection reset")
	_, err = f.rc.Update(context.Background(), created, catalog.Input{
		Media: map[string][]media.Blob{"images": {mediatest.Blob("new.jpg")}},
	})

	assert.ErrorIs(t, err, catalog.ErrPersistFailed)
	assert.ElementsMatch(t, created.References(), f.media.Live())
}

func TestUpdateMissingItem(t *testing.T) {
	f := newFixture(t, nil)
	ghost := &catalog.Item{ID: "ghost", Kind: catalog.KindBlog}

	_, err := f.rc.Update(context.Background(), ghost, catalog.Input{Fields: catalog.Fields{"title": "Hello"}})

	var nf *catalog.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "ghost", nf.ID)
}

func TestUpdateCollaborationRejected(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindCollaboration, catalog.Input{
		Fields: catalog.Fields{"email": "a@b.co"},
	})
	require.NoError(t, err)

	_, err = f.rc.Update(context.Background(), created, catalog.Input{Fields: catalog.Fields{"email": "c@d.co"}})
	assert.ErrorIs(t, err, catalog.ErrNotUpdatable)
}

func TestUpdateCategorySubCategories(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindCategory, catalog.Input{
		Fields:        catalog.Fields{"name": "Kitchen"},
		Media:         map[string][]media.Blob{"thumbnail": {mediatest.Blob("k.jpg")}},
		SubCategories: []catalog.SubCategory{{ID: "1", Name: "Mugs", IsPublic: true}},
	})
	require.NoError(t, err)

	_, err = f.rc.Update(context.Background(), created, catalog.Input{
		SubCategories: []catalog.SubCategory{{ID: "other-id", Name: "Mugs", IsPublic: true}},
	})
	assert.ErrorIs(t, err, catalog.ErrNoOpUpdate, "same names and visibility is not a change")

	updated, err := f.rc.Update(context.Background(), created, catalog.Input{
		SubCategories: []catalog.SubCategory{
			{ID: "1", Name: "Mugs", IsPublic: false},
			{ID: "2", Name: "Plates", IsPublic: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.SubCategories, 2)
	assert.False(t, updated.SubCategories[0].IsPublic)
	assert.Equal(t, "Plates", updated.SubCategories[1].Name)
}

func TestDeleteCategoryReleasesThumbnail(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindCategory, catalog.Input{
		Fields: catalog.Fields{"name": "Kitchen"},
		Media:  map[string][]media.Blob{"thumbnail": {mediatest.Blob("k.jpg")}},
		SubCategories: []catalog.SubCategory{
			{ID: "1", Name: "Mugs", IsPublic: true},
			{ID: "2", Name: "Plates", IsPublic: true},
		},
	})
	require.NoError(t, err)
	thumb := created.Media["thumbnail"][0]

	deleted, err := f.rc.Delete(context.Background(), catalog.KindCategory, created.ID)
	require.NoError(t, err)
	assert.Len(t, deleted.SubCategories, 2)
	assert.Equal(t, 1, f.media.DeleteCount(thumb))
	assert.Empty(t, f.media.Live())

	_, err = f.rc.Delete(context.Background(), catalog.KindCategory, created.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.Equal(t, 1, f.media.DeleteCount(thumb))
}

func TestDeleteFailure(t *testing.T) {
	repo := &failingRepo{Memory: store.NewMemory()}
	f := newFixture(t, repo)
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)

	repo.deleteErr = &catalog.NotFoundError{Kind: catalog.KindProduct, ID: created.ID}
	_, err = f.rc.Delete(context.Background(), catalog.KindProduct, created.ID)

	assert.ErrorIs(t, err, catalog.ErrDeleteFailed)
	assert.Empty(t, f.media.Deleted(), "media is kept when the record is kept")
}

func TestDeleteReleaseFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, nil)
	created, err := f.rc.Create(context.Background(), catalog.KindProduct, redMugInput())
	require.NoError(t, err)
	f.media.FailDeletes[created.Media["images"][0]] = errors.New("host down")

	_, err = f.rc.Delete(context.Background(), catalog.KindProduct, created.ID)
	require.NoError(t, err)

	_, err = f.repo.FindByID(context.Background(), catalog.KindProduct, created.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}
