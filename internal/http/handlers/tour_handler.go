package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trailpeak/tours-api/internal/domain"
	"github.com/trailpeak/tours-api/internal/http/middleware"
	"github.com/trailpeak/tours-api/internal/http/response"
	"github.com/trailpeak/tours-api/internal/images"
	"github.com/trailpeak/tours-api/internal/query"
	"github.com/trailpeak/tours-api/internal/service"
	"github.com/trailpeak/tours-api/pkg/config"
)

const maxUploadBytes = 10 << 20

// preset fills in query parameters for alias routes unless the caller set
// them explicitly.
func preset(defaults url.Values) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			for key, vals := range defaults {
				if q.Get(key) == "" {
					q.Set(key, vals[0])
				}
			}
			r.URL.RawQuery = q.Encode()
			next.ServeHTTP(w, r)
		})
	}
}

type TourHandler struct {
	svc     *service.TourService
	factory *Factory[domain.Tour]
	cfg     *config.Config
}

func NewTourHandler(svc *service.TourService, cfg *config.Config) *TourHandler {
	return &TourHandler{
		svc:     svc,
		factory: NewFactory[domain.Tour](svc, "tour", "tours").WithDefaultExclude("privateTour"),
		cfg:     cfg,
	}
}

// Routes mounts the tour routes. Reads are public; writes need an admin or
// lead guide.
func (h *TourHandler) Routes(resolver middleware.TokenResolver) chi.Router {
	r := chi.NewRouter()

	topFields := "name,price,ratingsAverage,summary,difficulty"
	r.With(preset(url.Values{
		"limit":  {"5"},
		"sort":   {"-ratingsAverage,price"},
		"fields": {topFields},
	})).Get("/top-5", h.factory.List)
	r.With(preset(url.Values{
		"limit":  {"5"},
		"sort":   {"price,-ratingsAverage"},
		"fields": {topFields},
	})).Get("/top-5-cheap", h.factory.List)

	r.Get("/tour-stats", h.Stats)
	r.With(middleware.RequireAuth(resolver), middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide)).
		Get("/monthly-plan/{year}", h.MonthlyPlan)

	r.Get("/tours-within/{distance}/center/{latlng}/unit/{unit}", h.ToursWithin)
	r.Get("/distances/{latlng}/unit/{unit}", h.Distances)

	r.Get("/", h.factory.List)
	r.Get("/{id}", h.GetOne)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(resolver), middleware.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
		r.Post("/", h.factory.Create)
		r.Patch("/{id}", h.Update)
		r.Delete("/{id}", h.factory.Delete)
	})

	return r
}

// GetOne returns a tour with its guides and reviews expanded.
func (h *TourHandler) GetOne(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	detail, err := h.svc.GetDetail(r.Context(), id)
	if err != nil {
		response.Error(w, err)
		return
	}
	if detail == nil {
		response.Error(w, domain.ErrNotFound("tour"))
		return
	}

	projected, err := query.ProjectOne(*detail, query.Parse(r.URL.Query()).Fields, "privateTour")
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "tour", projected)
}

// Update handles both JSON patches and multipart patches carrying new tour
// images. Uploaded images are normalized to 2000x1333 JPEG before the file
// names land on the document.
func (h *TourHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.factory.Update(w, r)
		return
	}

	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		response.Error(w, domain.ErrValidation("Could not parse upload"))
		return
	}

	patch := map[string]any{}
	for key, vals := range r.MultipartForm.Value {
		if len(vals) > 0 {
			patch[key] = vals[0]
		}
	}

	stamp := time.Now().UnixMilli()

	if cover, ok := r.MultipartForm.File["imageCover"]; ok && len(cover) > 0 {
		name := fmt.Sprintf("tour-%d-%d-cover.jpeg", id, stamp)
		if err := h.saveTourImage(cover[0], name); err != nil {
			response.Error(w, err)
			return
		}
		patch["imageCover"] = name
	}

	if files, ok := r.MultipartForm.File["images"]; ok && len(files) > 0 {
		names := make([]string, 0, len(files))
		for i, fh := range files {
			name := fmt.Sprintf("tour-%d-%d-%d.jpeg", id, stamp, i+1)
			if err := h.saveTourImage(fh, name); err != nil {
				response.Error(w, err)
				return
			}
			names = append(names, name)
		}
		patch["images"] = names
	}

	body, err := json.Marshal(patch)
	if err != nil {
		response.Error(w, domain.ErrInternal(err))
		return
	}

	tour, err := h.svc.UpdateByID(r.Context(), id, body)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "tour", tour)
}

func (h *TourHandler) saveTourImage(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return domain.ErrValidation("Could not read uploaded image")
	}
	defer src.Close()

	data, err := images.ResizeJPEG(src, images.TourCoverWidth, images.TourCoverHeight)
	if err != nil {
		return domain.ErrValidation("Not an image! Please upload only images.")
	}
	if err := images.Save(h.cfg.Assets.TourImageDir, name, data); err != nil {
		return domain.ErrInternal(err)
	}
	return nil
}

func (h *TourHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "stats", stats)
}

func (h *TourHandler) MonthlyPlan(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		response.Error(w, domain.ErrValidation("Invalid year: "+chi.URLParam(r, "year")))
		return
	}

	plan, err := h.svc.MonthlyPlan(r.Context(), year)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "plan", plan)
}

// parseLatLng splits the "{lat},{lng}" path segment.
func parseLatLng(raw string) (float64, float64, error) {
	var lat, lng float64
	if _, err := fmt.Sscanf(raw, "%f,%f", &lat, &lng); err != nil {
		return 0, 0, domain.ErrValidation("Please provide latitude and longitude in the format lat,lng.")
	}
	return lat, lng, nil
}

func (h *TourHandler) ToursWithin(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil {
		response.Error(w, domain.ErrValidation("Invalid distance: "+chi.URLParam(r, "distance")))
		return
	}
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		response.Error(w, err)
		return
	}

	tours, err := h.svc.ToursWithin(r.Context(), distance, lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, http.StatusOK, "tours", tours, len(tours))
}

func (h *TourHandler) Distances(w http.ResponseWriter, r *http.Request) {
	lat, lng, err := parseLatLng(chi.URLParam(r, "latlng"))
	if err != nil {
		response.Error(w, err)
		return
	}

	distances, err := h.svc.Distances(r.Context(), lat, lng, chi.URLParam(r, "unit"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.List(w, http.StatusOK, "distances", distances, len(distances))
}
