package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
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

type UserHandler struct {
	svc     *service.UserService
	auth    *AuthHandler
	factory *Factory[domain.User]
	cfg     *config.Config
}

func NewUserHandler(svc *service.UserService, auth *AuthHandler, cfg *config.Config) *UserHandler {
	return &UserHandler{
		svc:     svc,
		auth:    auth,
		factory: NewFactory[domain.User](svc, "user", "users"),
		cfg:     cfg,
	}
}

func (h *UserHandler) Routes(resolver middleware.TokenResolver) chi.Router {
	r := chi.NewRouter()

	r.Post("/signup", h.auth.Signup)
	r.Post("/login", h.auth.Login)
	r.Get("/logout", h.auth.Logout)
	r.Post("/forgotpassword", h.auth.ForgotPassword)
	r.Patch("/resetpassword/{token}", h.auth.ResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(resolver))

		r.Patch("/updatemypassword", h.auth.UpdateMyPassword)
		r.Get("/me", h.Me)
		r.Patch("/updateme", h.UpdateMe)
		r.Delete("/deleteme", h.DeleteMe)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RestrictTo(domain.RoleAdmin))
			r.Get("/", h.factory.List)
			r.Post("/", h.factory.Create)
			r.Get("/{id}", h.factory.GetOne)
			r.Patch("/{id}", h.factory.Update)
			r.Delete("/{id}", h.factory.Delete)
		})
	})

	return r
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)

	projected, err := query.ProjectOne(*u, query.Parse(r.URL.Query()).Fields)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "user", projected)
}

// UpdateMe updates the logged-in user's own profile. A multipart body may
// carry a photo, which is cropped to a 500x500 JPEG.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)

	var upd service.ProfileUpdate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			response.Error(w, domain.ErrValidation("Could not parse upload"))
			return
		}

		upd.Name = r.FormValue("name")
		upd.Email = r.FormValue("email")
		upd.Password = r.FormValue("password")
		upd.PasswordConfirm = r.FormValue("passwordConfirm")

		if files, ok := r.MultipartForm.File["photo"]; ok && len(files) > 0 {
			name, err := h.savePhoto(files[0], u.ID)
			if err != nil {
				response.Error(w, err)
				return
			}
			upd.Photo = name
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			response.Error(w, domain.ErrValidation("Invalid JSON body"))
			return
		}
	}

	updated, err := h.svc.UpdateMe(r.Context(), u.ID, &upd)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.Data(w, http.StatusOK, "user", updated)
}

func (h *UserHandler) savePhoto(fh *multipart.FileHeader, userID int64) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", domain.ErrValidation("Could not read uploaded image")
	}
	defer src.Close()

	data, err := images.ResizeJPEG(src, images.UserPhotoSize, images.UserPhotoSize)
	if err != nil {
		return "", domain.ErrValidation("Not an image! Please upload only images.")
	}

	name := fmt.Sprintf("user-%d-%d.jpeg", userID, time.Now().UnixMilli())
	if err := images.Save(h.cfg.Assets.UserImageDir, name, data); err != nil {
		return "", domain.ErrInternal(err)
	}
	return name, nil
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	u := middleware.CurrentUser(r)

	if err := h.svc.DeleteMe(r.Context(), u.ID); err != nil {
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}
