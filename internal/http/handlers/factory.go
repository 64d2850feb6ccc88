package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/internal/query"
)

// ResourceStore is the store contract every handler factory builds on.
type ResourceStore[T any] interface {
	List(ctx context.Context, opts query.Options, scope ...query.Filter) ([]T, error)
	GetByID(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, body []byte) (*T, error)
	UpdateByID(ctx context.Context, id int64, body []byte) (*T, error)
	DeleteByID(ctx context.Context, id int64) error
}

// BodyHook mutates a decoded create body before it reaches the store, e.g.
// to inject the parent tour ID on nested routes or the logged-in user.
type BodyHook func(r *http.Request, doc map[string]any)

// Factory provides the five generic CRUD handlers for one resource.
type Factory[T any] struct {
	store    ResourceStore[T]
	singular string
	plural   string

	// parentParam/parentField tie a nested route to its parent resource:
	// list requests are scoped to the parent and create bodies inherit it.
	parentParam string
	parentField string

	createHooks []BodyHook
	exclude     []string
}

func NewFactory[T any](store ResourceStore[T], singular, plural string) *Factory[T] {
	return &Factory[T]{store: store, singular: singular, plural: plural}
}

// WithParent scopes the factory under a parent URL parameter.
func (f *Factory[T]) WithParent(param, field string) *Factory[T] {
	f.parentParam = param
	f.parentField = field
	return f
}

// WithCreateHook appends a create-body hook.
func (f *Factory[T]) WithCreateHook(h BodyHook) *Factory[T] {
	f.createHooks = append(f.createHooks, h)
	return f
}

// WithDefaultExclude drops fields from responses unless explicitly selected.
func (f *Factory[T]) WithDefaultExclude(fields ...string) *Factory[T] {
	f.exclude = fields
	return f
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrValidation("Invalid ID: " + raw)
	}
	return id, nil
}

func (f *Factory[T]) parentScope(r *http.Request) ([]query.Filter, error) {
	if f.parentParam == "" || chi.URLParam(r, f.parentParam) == "" {
		return nil, nil
	}
	id, err := idParam(r, f.parentParam)
	if err != nil {
		return nil, err
	}
	return []query.Filter{{Field: f.parentField, Op: query.OpEq, Value: id}}, nil
}

func (f *Factory[T]) List(w http.ResponseWriter, r *http.Request) {
	scope, err := f.parentScope(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	opts := query.Parse(r.URL.Query())
	docs, err := f.store.List(r.Context(), opts, scope...)
	if err != nil {
		response.Error(w, err)
		return
	}

	projected, err := query.Project(docs, opts.Fields, f.exclude...)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, http.StatusOK, f.plural, projected, len(projected))
}

func (f *Factory[T]) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	doc, err := f.store.GetByID(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if doc == nil {
		response.Error(w, domain.ErrNotFound(f.singular))
		return
	}

	projected, err := query.ProjectOne(*doc, query.Parse(r.URL.Query()).Fields, f.exclude...)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, f.singular, projected)
}

func (f *Factory[T]) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, domain.ErrValidation("Could not read request body"))
		return
	}

	if len(f.createHooks) > 0 || f.parentParam != "" {
		var doc map[string]any
		if err := json.Unmarshal(body, &doc); err != nil {
			response.Error(w, domain.ErrValidation("Invalid JSON body"))
			return
		}

		if f.parentParam != "" && chi.URLParam(r, f.parentParam) != "" {
			if _, set := doc[f.parentField]; !set {
				id, err := idParam(r, f.parentParam)
				if err != nil {
					response.Error(w, err)
					return
				}
				doc[f.parentField] = id
			}
		}
		for _, h := range f.createHooks {
			h(r, doc)
		}

		if body, err = json.Marshal(doc); err != nil {
			response.Error(w, domain.ErrInternal(err))
			return
		}
	}

	created, err := f.store.Create(r.Context(), body)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusCreated, f.singular, created)
}

func (f *Factory[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		response.Error(w, domain.ErrValidation("Could not read request body"))
		return
	}

	doc, err := f.store.UpdateByID(r.Context(), id, body)
	if err != nil {
		response.Error(w, err)
		return
	}
	if doc == nil {
		response.Error(w, domain.ErrNotFound(f.singular))
		return
	}
	response.Data(w, http.StatusOK, f.singular, doc)
}

func (f *Factory[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := f.store.DeleteByID(r.Context(), id); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
