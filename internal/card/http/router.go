package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fayad123/bcards-server/internal/card/domain"
	"github.com/fayad123/bcards-server/internal/card/service"
	commonhttp "github.com/fayad123/bcards-server/internal/common/http"
	"github.com/fayad123/bcards-server/internal/common/jwtverify"
	"github.com/fayad123/bcards-server/internal/common/logger"
)

type Handler struct {
	cards  *service.CardService
	errors *commonhttp.ErrorHandler
}

func NewHandler(cards *service.CardService, log *logger.Logger) *Handler {
	return &Handler{
		cards:  cards,
		errors: commonhttp.NewErrorHandler(log),
	}
}

// Routes mounts the card endpoints. Reads are public; publicDelete puts
// DELETE on the public side as well.
func (h *Handler) Routes(r chi.Router, guard jwtverify.Guard, publicDelete bool) {
	r.With(guard.Optional).Get("/", h.list)
	r.With(guard.Optional).Get("/{id}", h.get)

	deleteGuard := guard.Required
	if publicDelete {
		deleteGuard = guard.Optional
	}
	r.With(deleteGuard).Delete("/{id}", h.delete)

	r.Group(func(r chi.Router) {
		r.Use(guard.Required)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Patch("/{id}", h.toggleLike)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input domain.Input
	if err := commonhttp.DecodeJSON(r, &input); err != nil {
		h.errors.HandleError(w, r, err)
		return
	}

	card, err := h.cards.Create(r.Context(), jwtverify.FromContext(r.Context()), input)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusCreated, card)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context())
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, cards)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	card, err := h.cards.Get(r.Context(), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, card)
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

	card, err := h.cards.Update(r.Context(), jwtverify.FromContext(r.Context()), id, patch)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, card)
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	card, err := h.cards.ToggleLike(r.Context(), jwtverify.FromContext(r.Context()), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, card)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	card, err := h.cards.Delete(r.Context(), jwtverify.FromContext(r.Context()), id)
	if err != nil {
		h.errors.HandleError(w, r, err)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, card)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := commonhttp.ValidateUUID(id); err != nil {
		h.errors.HandleError(w, r, err)
		return "", false
	}
	return id, true
}
