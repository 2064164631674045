package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/lunchbox"
	"github.com/dukerupert/nutribox/internal/model"
)

type LunchboxHandler struct {
	svc    *lunchbox.Service
	logger *slog.Logger
}

func NewLunchboxHandler(svc *lunchbox.Service, logger *slog.Logger) *LunchboxHandler {
	return &LunchboxHandler{svc: svc, logger: logger}
}

// List accepts ?hijo_id=, ?estado= and pagination.
func (h *LunchboxHandler) List(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	page, err := parsePage(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	q := r.URL.Query()
	f := lunchbox.ListFilter{Status: model.LunchboxStatus(q.Get("estado")), Page: page}
	if raw := q.Get("hijo_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, h.logger, r, apperr.Validation("invalid hijo_id"))
			return
		}
		f.ChildID = id
	}
	list, err := h.svc.List(r.Context(), p, f)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LunchboxHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in lunchbox.CreateInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	d, err := h.svc.Create(r.Context(), p, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *LunchboxHandler) Get(w http.ResponseWriter, r *http.Request) {
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
	d, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *LunchboxHandler) Summary(w http.ResponseWriter, r *http.Request) {
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
	sum, err := h.svc.Summary(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *LunchboxHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	childID, err := parseIDValue(r, "hijo_id")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	day, err := model.ParseDate(r.PathValue("fecha"))
	if err != nil {
		writeError(w, h.logger, r, apperr.Validation("fecha must be a date in %s format", model.DateLayout))
		return
	}
	d, err := h.svc.GetByDate(r.Context(), p, childID, day)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *LunchboxHandler) Update(w http.ResponseWriter, r *http.Request) {
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
	var patch model.LunchboxPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	lb, err := h.svc.Update(r.Context(), p, id, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// Delete marks the lunchbox Eliminada. The row is kept.
func (h *LunchboxHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	lb, err := h.svc.Delete(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *LunchboxHandler) Confirm(w http.ResponseWriter, r *http.Request) {
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
	lb, err := h.svc.Confirm(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *LunchboxHandler) AddItem(w http.ResponseWriter, r *http.Request) {
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
	var in lunchbox.ItemInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	item, err := h.svc.AddLineItem(r.Context(), p, id, in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// RemoveItem drops the line and responds with the updated detail.
func (h *LunchboxHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
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
	foodID, err := parseIDValue(r, "fid")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.svc.RemoveLineItem(r.Context(), p, id, foodID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	d, err := h.svc.Get(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// ChildStats accepts optional ?desde= and ?hasta= dates.
func (h *LunchboxHandler) ChildStats(w http.ResponseWriter, r *http.Request) {
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
	from, err := parseDateQuery(r, "desde")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	to, err := parseDateQuery(r, "hasta")
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	stats, err := h.svc.ChildStats(r.Context(), p, childID, from, to)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
