package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"dispatch-gateway/internal/auth"
	"dispatch-gateway/internal/config"
	"dispatch-gateway/internal/model"
	"dispatch-gateway/internal/namespace"
	"dispatch-gateway/internal/registry"
	"dispatch-gateway/internal/storage"
)

// fakeStore satisfies both api.Store and registry.MetadataStore.
type fakeStore struct {
	mu        sync.Mutex
	customers map[string]*model.Customer // token -> customer
	limits    map[string]model.DispatchLimits
	workers   map[string]model.OutboundWorker
	resets    int
	down      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers: make(map[string]*model.Customer),
		limits:    make(map[string]model.DispatchLimits),
		workers:   make(map[string]model.OutboundWorker),
	}
}

var errStoreDown = errors.New("store down")

func (s *fakeStore) CustomerByToken(_ context.Context, token string) (*model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	if c, ok := s.customers[token]; ok {
		return c, nil
	}
	return nil, storage.ErrNotFound
}

func (s *fakeStore) Reset(_ context.Context, seed []model.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.resets++
	s.customers = make(map[string]*model.Customer)
	s.limits = make(map[string]model.DispatchLimits)
	s.workers = make(map[string]model.OutboundWorker)
	for i := range seed {
		c := seed[i]
		s.customers[c.Token] = &c
	}
	return nil
}

func (s *fakeStore) ListCustomers(_ context.Context) ([]model.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	var out []model.Customer
	for _, c := range s.customers {
		out = append(out, *c)
	}
	return out, nil
}

func (s *fakeStore) ListDispatchLimits(_ context.Context) ([]model.DispatchLimits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	var out []model.DispatchLimits
	for _, l := range s.limits {
		out = append(out, l)
	}
	return out, nil
}

func (s *fakeStore) ListOutboundWorkers(_ context.Context) ([]model.OutboundWorker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	var out []model.OutboundWorker
	for _, w := range s.workers {
		out = append(out, w)
	}
	return out, nil
}

func (s *fakeStore) UpsertDispatchLimits(_ context.Context, l *model.DispatchLimits) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.limits[l.ScriptID] = *l
	return nil
}

func (s *fakeStore) DispatchLimits(_ context.Context, scriptID string) (*model.DispatchLimits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	if l, ok := s.limits[scriptID]; ok {
		return &l, nil
	}
	return nil, nil
}

func (s *fakeStore) OutboundWorker(_ context.Context, scriptID string) (*model.OutboundWorker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	if w, ok := s.workers[scriptID]; ok {
		return &w, nil
	}
	return nil, nil
}

func (s *fakeStore) addCustomer(t *testing.T, plan string) (*model.Customer, string) {
	t.Helper()
	c := &model.Customer{ID: uuid.New(), PlanType: plan}
	token, err := auth.GenerateToken(c.ID.String())
	require.NoError(t, err)
	c.Token = token
	s.mu.Lock()
	s.customers[token] = c
	s.mu.Unlock()
	return c, token
}

func newTestAPI(t *testing.T) (http.Handler, *fakeStore, *namespace.MemoryClient) {
	t.Helper()
	auth.SetSecret("test-secret")

	store := newFakeStore()
	ns := namespace.NewMemoryClient()
	reg := registry.New(store, ns, nil)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Seed = []config.SeedCustomer{{ID: uuid.NewString(), PlanType: "basic"}}

	a := NewAPI(reg, store, ns, cfg)
	return a.Router(), store, ns
}

func doUpload(t *testing.T, router http.Handler, token, name, script string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(model.UploadRequest{Script: script})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/script/"+name, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUploadListDispatchRoundTrip(t *testing.T) {
	router, store, _ := newTestAPI(t)
	_, token := store.addCustomer(t, "basic")

	rec := doUpload(t, router, token, "demo", "export default {}")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "Success", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/script", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var names []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &names))
	require.Equal(t, []string{"demo"}, names)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dispatch/demo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"script":"demo"`)
}

func TestUploadConflictBetweenCustomers(t *testing.T) {
	router, store, _ := newTestAPI(t)
	_, ownerToken := store.addCustomer(t, "basic")
	_, otherToken := store.addCustomer(t, "premium")

	require.Equal(t, http.StatusCreated, doUpload(t, router, ownerToken, "taken", "v1").Code)

	rec := doUpload(t, router, otherToken, "taken", "v2")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "reserved")

	// Owner can still overwrite.
	require.Equal(t, http.StatusCreated, doUpload(t, router, ownerToken, "taken", "v3").Code)
}

func TestUploadBadBody(t *testing.T) {
	router, store, _ := newTestAPI(t)
	_, token := store.addCustomer(t, "basic")

	req := httptest.NewRequest(http.MethodPut, "/script/bad", bytes.NewReader([]byte(`{"no_script": true}`)))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "script")
}

func TestUploadForwardsPlatformDiagnostic(t *testing.T) {
	router, store, _ := newTestAPI(t)
	_, token := store.addCustomer(t, "basic")

	rec := doUpload(t, router, token, "blank", "   ")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "errors")
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestUploadRequiresAuth(t *testing.T) {
	router, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPut, "/script/nope", bytes.NewReader([]byte(`{"script":"x"}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthStoreOutageIs500(t *testing.T) {
	router, store, _ := newTestAPI(t)
	_, token := store.addCustomer(t, "basic")
	store.down = true

	req := httptest.NewRequest(http.MethodGet, "/script", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDispatchUnknownScriptIsOpaque404(t *testing.T) {
	router, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dispatch/ghost", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "could not dispatch")
}

func TestCatchAll404(t *testing.T) {
	router, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/definitely/not/here", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "no route matching")
}

func TestWrongVerbGets404RoutingMessage(t *testing.T) {
	router, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/script", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "no route matching")
}

func TestInitResetsAndRedirects(t *testing.T) {
	router, store, ns := newTestAPI(t)
	_, token := store.addCustomer(t, "basic")
	require.Equal(t, http.StatusCreated, doUpload(t, router, token, "stale", "x").Code)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/init", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Equal(t, 1, store.resets)

	names, err := ns.ListScripts()
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestIndexDegradesWhenStoreDown(t *testing.T) {
	router, store, _ := newTestAPI(t)
	store.down = true

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// Unavailable adapters degrade the page, they do not fail the request.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "degraded")
}

func TestUploadForm(t *testing.T) {
	router, _, _ := newTestAPI(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/upload", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "<form")
}
