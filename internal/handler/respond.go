package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/auth"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/store"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = apperr.Validation("request body is required")

type errorBody struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeError maps domain errors onto their status codes. Anything else is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}
	if kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, apperr.HTTPStatus(kind), errorBody{Error: err.Error(), Kind: kind})
}

// decodeJSON reads a JSON body into v. Malformed bodies are validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperr.Validation("request body exceeds %d bytes", tooBig.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return apperr.Wrap(apperr.KindValidation, err, "invalid JSON")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) error {
	err := decodeJSON(w, r, v)
	if errors.Is(err, errEmptyBody) {
		return nil
	}
	return err
}

func parseIDParam(r *http.Request) (int64, error) {
	return parseIDValue(r, "id")
}

func parseIDValue(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return id, nil
}

// parsePage reads skip and limit. skip must be >= 0 and limit in 1..100.
func parsePage(r *http.Request) (store.Page, error) {
	page := store.Page{Limit: store.DefaultLimit}
	q := r.URL.Query()
	if raw := q.Get("skip"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return page, apperr.Validation("skip must be a non-negative integer")
		}
		page.Offset = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > store.MaxLimit {
			return page, apperr.Validation("limit must be between 1 and %d", store.MaxLimit)
		}
		page.Limit = n
	}
	return page, nil
}

func parseDateQuery(r *http.Request, name string) (*model.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		return nil, apperr.Validation("%s must be a date in %s format", name, model.DateLayout)
	}
	return &d, nil
}

func actor(r *http.Request) (model.Principal, error) {
	p, ok := auth.Principal(r.Context())
	if !ok {
		return model.Principal{}, apperr.Unauthorized("authentication required")
	}
	return p, nil
}
