package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/nutribox/internal/account"
	"github.com/dukerupert/nutribox/internal/model"
)

// ChildHandler serves children with their dietary restrictions, and the
// user's delivery addresses.
type ChildHandler struct {
	svc    *account.Service
	logger *slog.Logger
}

func NewChildHandler(svc *account.Service, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{svc: svc, logger: logger}
}

func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in account.ChildInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.CreateChild(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	children, err := h.svc.ListChildren(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.GetChild(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var patch model.ChildPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	c, err := h.svc.UpdateChild(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.svc.DeleteChild(r.Context(), p, id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restrictions

func (h *ChildHandler) CreateRestriction(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in account.RestrictionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.svc.CreateRestriction(r.Context(), p, childID, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *ChildHandler) ListRestrictions(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	childID, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	list, err := h.svc.ListRestrictions(r.Context(), p, childID)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ChildHandler) UpdateRestriction(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var patch model.RestrictionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	res, err := h.svc.UpdateRestriction(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ChildHandler) DeleteRestriction(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.svc.DeleteRestriction(r.Context(), p, id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChildHandler) AddException(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in account.ExceptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	e, err := h.svc.AddException(r.Context(), p, id, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (h *ChildHandler) ListExceptions(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	list, err := h.svc.ListExceptions(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Addresses

func (h *ChildHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in account.AddressInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	a, err := h.svc.CreateAddress(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *ChildHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	list, err := h.svc.ListAddresses(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ChildHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var patch model.AddressPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	a, err := h.svc.UpdateAddress(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *ChildHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.svc.DeleteAddress(r.Context(), p, id); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
