package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/nutribox/internal/account"
	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/auth"
	"github.com/dukerupert/nutribox/internal/model"
)

// AccountHandler serves registration, sessions, profiles and user
// administration.
type AccountHandler struct {
	svc    *account.Service
	logger *slog.Logger
}

func NewAccountHandler(svc *account.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

type profile struct {
	User model.User           `json:"user"`
	Role model.Role           `json:"role"`
	Tier model.MembershipTier `json:"tier"`
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in account.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	u, err := h.svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, h.logger, r, apperr.Validation("email and password are required"))
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile{User: p.User, Role: p.Role, Tier: p.Tier})
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, h.logger, r, apperr.Unauthorized("authentication required"))
		return
	}
	if err := h.svc.Logout(r.Context(), ac.TokenID); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "logged out")
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var patch model.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), p, patch)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, err := actor(r)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	var in account.PasswordChange
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := h.svc.ChangePassword(r.Context(), p, in); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password changed, sign in again")
}

// ListUsers accepts ?activo=true|false, ?q= and pagination.
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
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
	f := account.UserFilter{Query: r.URL.Query().Get("q"), Page: page}
	if raw := r.URL.Query().Get("activo"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, h.logger, r, apperr.Validation("activo must be true or false"))
			return
		}
		f.Active = &active
	}
	users, err := h.svc.ListUsers(r.Context(), p, f)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.svc.Deactivate)
}

func (h *AccountHandler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, h.svc.Activate)
}

func (h *AccountHandler) setActive(w http.ResponseWriter, r *http.Request, op func(context.Context, model.Principal, int64) (*model.User, error)) {
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
	u, err := op(r.Context(), p, id)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type tierRequest struct {
	Tier model.TierName `json:"tier"`
}

func (h *AccountHandler) SetTier(w http.ResponseWriter, r *http.Request) {
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
	var req tierRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	u, err := h.svc.SetTier(r.Context(), p, id, req.Tier)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *AccountHandler) ListTiers(w http.ResponseWriter, r *http.Request) {
	tiers, err := h.svc.ListTiers(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tiers)
}

func (h *AccountHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.ListRoles(r.Context())
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}
