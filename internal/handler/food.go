package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/dukerupert/nutribox/internal/catalog"
	"github.com/dukerupert/nutribox/internal/model"
)

type FoodHandler struct {
	svc    *catalog.Service
	logger *slog.Logger
}

func NewFoodHandler(svc *catalog.Service, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{svc: svc, logger: logger}
}

// List accepts ?estado=, ?categoria= and pagination.
func (h *FoodHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	q := r.URL.Query()
	items, err := h.svc.List(r.Context(), catalog.Filter{
		Status:   model.FoodStatus(q.Get("estado")),
		Category: q.Get("categoria"),
		Page:     page,
	})
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FoodHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	items, err := h.svc.ListActive(r.Context(), page)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	items, err := h.svc.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FoodHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	items, err := h.svc.ListByCategory(r.Context(), r.PathValue("tipo"), page)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *FoodHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *FoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in catalog.FoodInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.svc.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *FoodHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var patch model.FoodItemPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.svc.Update(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

type statusOp func(ctx context.Context, actor model.Principal, id int64, reason string) (*model.FoodItem, error)

type reasonRequest struct {
	Reason string `json:"reason"`
}

// Delete marks the item Inactivo. An optional {"reason"} body is recorded
// in the history entry.
func (h *FoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.Delete)
}

func (h *FoodHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.svc.Restore)
}

func (h *FoodHandler) setStatus(w http.ResponseWriter, r *http.Request, op statusOp) {
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
	var req reasonRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := op(r.Context(), p, id, req.Reason)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *FoodHandler) History(w http.ResponseWriter, r *http.Request) {
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
	entries, err := h.svc.History(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
