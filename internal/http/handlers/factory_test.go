package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/handlers"
	"github.com/trailpeak/tours-api/internal/query"
)

// ---------- Mocks ----------

type mockStore struct {
	reviews   map[int64]*domain.Review
	nextID    int64
	lastOpts  query.Options
	lastScope []query.Filter
	lastBody  []byte
}

func newMockStore() *mockStore {
	return &mockStore{reviews: map[int64]*domain.Review{}, nextID: 1}
}

func (m *mockStore) List(_ context.Context, opts query.Options, scope ...query.Filter) ([]domain.Review, error) {
	m.lastOpts = opts
	m.lastScope = scope
	out := []domain.Review{}
	for _, rv := range m.reviews {
		out = append(out, *rv)
	}
	return out, nil
}

func (m *mockStore) GetByID(_ context.Context, id int64) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	cp := *rv
	return &cp, nil
}

func (m *mockStore) Create(_ context.Context, body []byte) (*domain.Review, error) {
	m.lastBody = body
	var in domain.ReviewInput
	if err := json.Unmarshal(body, &in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rv := &domain.Review{ID: m.nextID, Review: in.Review, Rating: in.Rating, Tour: in.Tour, User: in.User}
	m.reviews[rv.ID] = rv
	m.nextID++
	return rv, nil
}

func (m *mockStore) UpdateByID(_ context.Context, id int64, body []byte) (*domain.Review, error) {
	rv, ok := m.reviews[id]
	if !ok {
		return nil, nil
	}
	in := domain.InputFromReview(rv)
	if err := json.Unmarshal(body, in); err != nil {
		return nil, domain.ErrValidation("Invalid JSON body")
	}
	rv.Review, rv.Rating = in.Review, in.Rating
	cp := *rv
	return &cp, nil
}

func (m *mockStore) DeleteByID(_ context.Context, id int64) error {
	if _, ok := m.reviews[id]; !ok {
		return domain.ErrNotFound("review")
	}
	delete(m.reviews, id)
	return nil
}

type envelope struct {
	Status  string          `json:"status"`
	Results *int            `json:"results"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return env
}

func newTestRouter(store *mockStore) chi.Router {
	factory := handlers.NewFactory[domain.Review](store, "review", "reviews").
		WithParent("tourId", "tour")

	r := chi.NewRouter()
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/", factory.List)
		r.Post("/", factory.Create)
		r.Get("/{id}", factory.GetOne)
		r.Patch("/{id}", factory.Update)
		r.Delete("/{id}", factory.Delete)
	})
	r.Route("/tours/{tourId}/reviews", func(r chi.Router) {
		r.Get("/", factory.List)
		r.Post("/", factory.Create)
	})
	return r
}

// ---------- Tests ----------

func TestListEnvelopeShape(t *testing.T) {
	store := newMockStore()
	store.reviews[1] = &domain.Review{ID: 1, Rating: 5, Tour: 1, User: 2}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "success" {
		t.Errorf("expected success status, got %q", env.Status)
	}
	if env.Results == nil || *env.Results != 1 {
		t.Errorf("expected results=1, got %v", env.Results)
	}

	var data struct {
		Reviews []map[string]any `json:"reviews"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Reviews) != 1 {
		t.Errorf("expected one review in data.reviews, got %v", data.Reviews)
	}
}

func TestListForwardsQueryOptions(t *testing.T) {
	store := newMockStore()
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews?rating[gte]=4&limit=2&page=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.lastOpts.Limit != 2 || store.lastOpts.Page != 3 {
		t.Errorf("pagination not forwarded: %+v", store.lastOpts)
	}
	if len(store.lastOpts.Filters) != 1 || store.lastOpts.Filters[0].Op != query.OpGte {
		t.Errorf("filters not forwarded: %+v", store.lastOpts.Filters)
	}
}

func TestNestedListScopesToParent(t *testing.T) {
	store := newMockStore()
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tours/42/reviews", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(store.lastScope) != 1 {
		t.Fatalf("expected parent scope filter, got %+v", store.lastScope)
	}
	f := store.lastScope[0]
	if f.Field != "tour" || f.Op != query.OpEq || f.Value != int64(42) {
		t.Errorf("unexpected scope filter: %+v", f)
	}
}

func TestNestedCreateInheritsParentID(t *testing.T) {
	store := newMockStore()
	router := newTestRouter(store)

	body := strings.NewReader(`{"rating": 5, "user": 7}`)
	req := httptest.NewRequest(http.MethodPost, "/tours/42/reviews", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.reviews[1].Tour != 42 {
		t.Errorf("parent tour ID not injected, got %+v", store.reviews[1])
	}
}

func TestNestedCreateBodyWinsOverURL(t *testing.T) {
	store := newMockStore()
	router := newTestRouter(store)

	body := strings.NewReader(`{"rating": 5, "user": 7, "tour": 9}`)
	req := httptest.NewRequest(http.MethodPost, "/tours/42/reviews", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if store.reviews[1].Tour != 9 {
		t.Errorf("explicit body value should win, got %+v", store.reviews[1])
	}
}

func TestGetOneNotFound(t *testing.T) {
	router := newTestRouter(newMockStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews/99", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "fail" {
		t.Errorf("4xx responses use fail status, got %q", env.Status)
	}
}

func TestGetOneBadID(t *testing.T) {
	router := newTestRouter(newMockStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reviews/not-a-number", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateInvalidBodyFails(t *testing.T) {
	router := newTestRouter(newMockStore())

	req := httptest.NewRequest(http.MethodPost, "/reviews", strings.NewReader(`{"rating": 11}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Status != "fail" || env.Message == "" {
		t.Errorf("expected fail envelope with message, got %+v", env)
	}
}

func TestDeleteReturns204(t *testing.T) {
	store := newMockStore()
	store.reviews[1] = &domain.Review{ID: 1, Rating: 4, Tour: 1, User: 1}
	router := newTestRouter(store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/reviews/1", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(store.reviews) != 0 {
		t.Error("review not deleted")
	}
}

func TestUpdateMergesOverExisting(t *testing.T) {
	store := newMockStore()
	store.reviews[1] = &domain.Review{ID: 1, Review: "Fine", Rating: 3, Tour: 1, User: 1}
	router := newTestRouter(store)

	req := httptest.NewRequest(http.MethodPatch, "/reviews/1", strings.NewReader(`{"rating": 5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.reviews[1].Rating != 5 || store.reviews[1].Review != "Fine" {
		t.Errorf("patch should merge over existing fields: %+v", store.reviews[1])
	}
}
