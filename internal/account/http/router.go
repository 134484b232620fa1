package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fayad123/bcards-server/internal/account/domain"
	"github.com/fayad123/bcards-server/internal/account/service"
	commonhttp "github.com/fayad123/bcards-server/internal/common/http"
	"github.com/fayad123/bcards-server/internal/common/jwtverify"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

type tokenResponse struct {
	Token string `json:"token"`
}

type toggleBusinessRequest struct {
	IsBusiness *bool `json:"isBusiness"`
}

type Handler struct {
	accounts *service.AccountService
	errors   *commonhttp.ErrorHandler
	log      *logger.Logger
}

func NewHandler(accounts *service.AccountService, log *logger.Logger) *Handler {
	return &Handler{
		accounts: accounts,
		errors:   commonhttp.NewErrorHandler(log),
		log:      log,
	}
}

// Routes mounts the account endpoints. Registration and login ignore a bad
// token; every other route rejects one.
func (h *Handler) Routes(r chi.Router, guard jwtverify.Guard) {
	r.With(guard.Optional).Post("/", h.register)
	r.With(guard.Optional).Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(guard.Required)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.toggleBusiness)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	signed, err := h.accounts.Register(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, tokenResponse{Token: signed})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := commonhttp.DecodeJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	signed, err := h.accounts.Login(r.Context(), req)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, tokenResponse{Token: signed})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.accounts.List(r.Context(), jwtverify.FromContext(r.Context()))
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.Get(r.Context(), jwtverify.FromContext(r.Context()), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var patch domain.Patch
	if err := commonhttp.DecodeJSON(r, &patch); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	view, err := h.accounts.Update(r.Context(), jwtverify.FromContext(r.Context()), id, patch)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) toggleBusiness(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req toggleBusinessRequest
	if err := commonhttp.DecodeOptionalJSON(r, &req); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	view, err := h.accounts.ToggleBusiness(r.Context(), jwtverify.FromContext(r.Context()), id, req.IsBusiness)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	view, err := h.accounts.Delete(r.Context(), jwtverify.FromContext(r.Context()), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := commonhttp.ValidateUUID(id); err != nil {
		h.errors.HandleError(w, r, err)
		return "", false
	}
	return id, true
}
