package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shopcms/internal/catalog"
	"shopcms/internal/mailer"
	"shopcms/internal/media/mediatest"
	"shopcms/internal/ratelimiter"
	"shopcms/internal/store"
	"shopcms/internal/validate"
)

type testServer struct {
	app   *application
	media *mediatest.Store
	mux   http.Handler
}

func newTestServer(t *testing.T, configure ...func(*config)) *testServer {
	t.Helper()

	cfg := config{
		env:         "test",
		corsOrigins: []string{"http://localhost:3000"},
		db:          dbConfig{driver: "memory"},
		auth:        authConfig{basic: basicConfig{user: "admin", pass: "secret"}},
	}
	for _, fn := range configure {
		fn(&cfg)
	}

	logger := zap.NewNop().Sugar()
	repo := store.NewMemory()
	ms := mediatest.NewStore()

	app := &application{
		config:    cfg,
		logger:    logger,
		repo:      repo,
		catalog:   catalog.NewReconciler(repo, ms, mediatest.Releaser{Store: ms}, logger),
		validator: validate.New(),
	}
	if cfg.rateLimiter.Enabled {
		rl := ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame)
		t.Cleanup(rl.Stop)
		app.rateLimiter = rl
	}

	return &testServer{app: app, media: ms, mux: app.mount()}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)

	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	}
	return rr, env
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// upload is a file part of a multipart request.
type upload struct {
	field, filename string
	data            []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func redMugFields() map[string]string {
	return map[string]string{
		"name":          "Red Mug",
		"productDetail": "Ceramic, 350ml",
		"affiliateLink": "https://example.com/mug",
		"category":      "Kitchen",
		"size":          "M",
		"sellingPrice":  "9",
		"originalPrice": "10",
		"discount":      "10",
	}
}

func (s *testServer) createProduct(t *testing.T, name string) string {
	t.Helper()
	fields := redMugFields()
	fields["name"] = name
	rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", fields,
		upload{"images", "a.png", pngBytes(t)}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id, ok := env.Data.(string)
	require.True(t, ok, "create returns the id")
	return id
}

func TestProductLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createProduct(t, "Red Mug")

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Product found successfully", env.Message)
	assert.True(t, env.Success)
	doc := env.Data.(map[string]any)
	assert.Equal(t, "Red Mug", doc["name"])
	assert.Equal(t, true, doc["isPublic"])
	assert.Len(t, doc["images"], 1)

	rr, env = s.do(t, multipartRequest(t, http.MethodPatch, "/api/v1/products/update/"+id,
		map[string]string{"discount": "20"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, id, env.Data)

	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	doc = env.Data.(map[string]any)
	assert.Equal(t, 20.0, doc["discount"])
	assert.Equal(t, 9.0, doc["sellingPrice"])

	rr, env = s.do(t, multipartRequest(t, http.MethodPatch, "/api/v1/products/update/"+id,
		map[string]string{"discount": "20"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No fields to update", env.Message)

	images := doc["images"].([]any)
	rr, env = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/products/delete/"+id, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Product deleted successfully", env.Message)
	assert.Equal(t, 1, s.media.DeleteCount(images[0].(string)))

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Product not found", env.Message)
	assert.False(t, env.Success)
}

func TestCreateProductValidation(t *testing.T) {
	s := newTestServer(t)

	t.Run("missing field", func(t *testing.T) {
		fields := redMugFields()
		delete(fields, "name")
		rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", fields,
			upload{"images", "a.png", pngBytes(t)}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, `"name" is required`, env.Message)
	})

	t.Run("missing images", func(t *testing.T) {
		rr, _ := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", redMugFields()))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not an image", func(t *testing.T) {
		rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", redMugFields(),
			upload{"images", "notes.png", []byte("just some text")}))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, env.Message, "must be a JPEG, PNG or WebP image")
	})

	assert.Empty(t, s.media.Uploaded())
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/get/all", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Products not found", env.Message)

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/get/recent", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []any{}, env.Data)

	for _, name := range []string{"Red Mug", "Blue Mug", "Green Plate"} {
		s.createProduct(t, name)
	}

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/get/all", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	items := env.Data.([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "Green Plate", items[0].(map[string]any)["name"])
	assert.NotContains(t, items[0].(map[string]any), "productDetail")

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/get/all?page=2&limit=2", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	data := env.Data.(map[string]any)
	assert.Len(t, data["items"], 1)
	pagination := data["pagination"].(map[string]any)
	assert.Equal(t, 3.0, pagination["total"])
	assert.Equal(t, 2.0, pagination["totalPages"])
	assert.Equal(t, true, pagination["hasPrev"])
	assert.Equal(t, false, pagination["hasNext"])
}

func TestSearchProducts(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(t, "Red Mug")
	s.createProduct(t, "Green Plate")

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products?search=mug", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "Red Mug", env.Data.([]any)[0].(map[string]any)["name"])

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products?search=bowl", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Products not found", env.Message)

	rr, _ = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products?search=", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCategorySubCategories(t *testing.T) {
	s := newTestServer(t)

	rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/categories/create",
		map[string]string{"name": "Kitchen", "subCategories": `[{"name":"Mugs"},{"name":"Mugs"}]`},
		upload{"thumbnail", "k.png", pngBytes(t)}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `"subCategories[1]" contains a duplicate value`, env.Message)

	rr, env = s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/categories/create",
		map[string]string{"name": "Kitchen", "subCategories": `[{"name":"Mugs"},{"name":"Plates","isPublic":false}]`},
		upload{"thumbnail", "k.png", pngBytes(t)}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := env.Data.(string)

	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/categories/"+id, nil))
	subs := env.Data.(map[string]any)["subCategories"].([]any)
	require.Len(t, subs, 2)
	assert.Equal(t, true, subs[0].(map[string]any)["isPublic"])
	assert.Equal(t, false, subs[1].(map[string]any)["isPublic"])
	assert.NotEmpty(t, subs[0].(map[string]any)["_id"])
}

func TestBannerImages(t *testing.T) {
	s := newTestServer(t)

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/banners/get", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Banner not found", env.Message)

	rr, env = s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/banners/create", nil,
		upload{"imageOne", "one.png", pngBytes(t)},
		upload{"imageTwo", "two.png", pngBytes(t)},
		upload{"imageThree", "three.png", pngBytes(t)}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	banner := env.Data.(map[string]any)
	id := banner["_id"].(string)
	oldTwo := banner["imageTwo"].(string)

	rr, env = s.do(t, multipartRequest(t, http.MethodPatch, "/api/v1/banners/update/"+id, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "There is no image to update", env.Message)

	rr, env = s.do(t, multipartRequest(t, http.MethodPatch, "/api/v1/banners/update/"+id, nil,
		upload{"imageTwo", "two-v2.png", pngBytes(t)}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := env.Data.(map[string]any)
	assert.NotEqual(t, oldTwo, updated["imageTwo"])
	assert.Equal(t, banner["imageOne"], updated["imageOne"])
	assert.Equal(t, 1, s.media.DeleteCount(oldTwo))

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/banners/get", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, updated["imageTwo"], env.Data.(map[string]any)["imageTwo"])
}

type sentMail struct {
	template, username, email string
	data                      any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(templateFile, username, email string, data any) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{templateFile, username, email, data})
	return 200, nil
}

func TestCollaborations(t *testing.T) {
	s := newTestServer(t, func(c *config) { c.mail.adminEmail = "admin@shop.test" })
	mail := &fakeMailer{}
	s.app.mailer = mail

	rr, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/collaborations/create", map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "not-an-email",
		"phoneNumber": "555", "message": "hi",
	}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, `"email" must be a valid email`, env.Message)

	rr, env = s.do(t, jsonRequest(t, http.MethodPost, "/api/v1/collaborations/create", map[string]any{
		"firstName": "Ada", "lastName": "Lovelace", "email": "ada@example.com",
		"phoneNumber": "555", "message": "Let's work together",
	}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := env.Data.(map[string]any)
	assert.Equal(t, "ada@example.com", created["email"])

	s.app.wg.Wait()
	require.Len(t, mail.sent, 1)
	assert.Equal(t, "admin@shop.test", mail.sent[0].email)
	assert.Equal(t, "Lovelace", mail.sent[0].data.(mailer.CollaborationData).LastName)

	rr, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/collaborations/all", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, env.Data, 1)

	rr, _ = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/collaborations/delete/"+created["_id"].(string), nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/collaborations/delete/"+created["_id"].(string), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCount(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(t, "Red Mug")
	s.createProduct(t, "Blue Mug")

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/base/count", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"productCount": 2.0, "blogCount": 0.0, "categoryCount": 0.0}, env.Data)
}

func TestDebugVarsRequiresBasicAuth(t *testing.T) {
	s := newTestServer(t)

	rr, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/debug/vars", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/v1/debug/vars", nil)
	req.SetBasicAuth("admin", "wrong")
	rr, _ = s.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/v1/debug/vars", nil)
	req.SetBasicAuth("admin", "secret")
	rr = httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimiter(t *testing.T) {
	s := newTestServer(t, func(c *config) {
		c.rateLimiter = ratelimiter.Config{RequestsPerTimeFrame: 2, TimeFrame: time.Minute, Enabled: true}
	})

	for i := 0; i < 2; i++ {
		rr, _ := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr, env := s.do(t, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, env.Message, "rate limit exceeded")
}

func TestRefreshCatalogStats(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(t, "Red Mug")

	require.NoError(t, s.app.refreshCatalogStats(t.Context()))
	snap := s.app.stats.snapshot().(map[string]any)
	assert.Equal(t, 1, snap["products"])
	assert.Equal(t, 0, snap["banners"])
}

func TestRedMugKeepsSubmittedPrice(t *testing.T) {
	s := newTestServer(t)

	rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", map[string]string{
		"name":          "Red Mug",
		"productDetail": "A mug.",
		"affiliateLink": "https://x.test/m",
		"category":      "Kitchen",
		"size":          "1",
		"sellingPrice":  "10",
		"originalPrice": "12",
		"discount":      "17",
		"isPublic":      "true",
	}, upload{"images", "mug.png", pngBytes(t)}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id := env.Data.(string)

	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	doc := env.Data.(map[string]any)
	assert.Len(t, doc["images"], 1)
	assert.Equal(t, 17.0, doc["discount"])
	assert.Equal(t, 10.0, doc["sellingPrice"])

	rr, _ = s.do(t, jsonRequest(t, http.MethodPatch, "/api/v1/products/update/"+id, map[string]any{"discount": 50}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	doc = env.Data.(map[string]any)
	assert.Equal(t, 50.0, doc["discount"])
	assert.Equal(t, 10.0, doc["sellingPrice"])
}

func TestCreateHiddenProduct(t *testing.T) {
	s := newTestServer(t)

	fields := redMugFields()
	fields["isPublic"] = "false"
	rr, env := s.do(t, multipartRequest(t, http.MethodPost, "/api/v1/products/create", fields,
		upload{"images", "a.png", pngBytes(t)}))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	_, env = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/products/"+env.Data.(string), nil))
	assert.Equal(t, false, env.Data.(map[string]any)["isPublic"])
}
