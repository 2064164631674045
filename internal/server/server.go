package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/nutribox/internal/account"
	"github.com/dukerupert/nutribox/internal/auth"
	"github.com/dukerupert/nutribox/internal/catalog"
	"github.com/dukerupert/nutribox/internal/config"
	"github.com/dukerupert/nutribox/internal/handler"
	"github.com/dukerupert/nutribox/internal/lunchbox"
	"github.com/dukerupert/nutribox/internal/metrics"
	"github.com/dukerupert/nutribox/internal/middleware"
	ws "github.com/dukerupert/nutribox/internal/websocket"
)

type Server struct {
	db          *sql.DB
	cfg         config.Config
	hub         *ws.Hub
	accounts    *account.Service
	lunchboxes  *lunchbox.Service
	accountH    *handler.AccountHandler
	childH      *handler.ChildHandler
	lunchboxH   *handler.LunchboxHandler
	foodH       *handler.FoodHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	accounts := account.NewService(db, tokens, logger.With("component", "account"))
	foods := catalog.NewService(db, hub, logger.With("component", "catalog"))
	lunchboxes := lunchbox.NewService(db, hub, logger.With("component", "lunchbox"))

	return &Server{
		db:          db,
		cfg:         cfg,
		hub:         hub,
		accounts:    accounts,
		lunchboxes:  lunchboxes,
		accountH:    handler.NewAccountHandler(accounts, logger.With("component", "account_handler")),
		childH:      handler.NewChildHandler(accounts, logger.With("component", "child_handler")),
		lunchboxH:   handler.NewLunchboxHandler(lunchboxes, logger.With("component", "lunchbox_handler")),
		foodH:       handler.NewFoodHandler(foods, logger.With("component", "food_handler")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Accounts returns the account service for startup bootstrap and cleanup.
func (s *Server) Accounts() *account.Service {
	return s.accounts
}

// Lunchboxes returns the lunchbox service for the archive scheduler.
func (s *Server) Lunchboxes() *lunchbox.Service {
	return s.lunchboxes
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Router builds the full handler. Authentication wraps each protected route
// rather than a nested mux so the metrics middleware sees the matched
// pattern.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /auth/register", s.rateLimited(s.accountH.Register))
	mux.HandleFunc("POST /auth/login", s.rateLimited(s.accountH.Login))

	s.registerProtectedRoutes(mux)

	var h http.Handler = mux
	h = middleware.CORS(s.cfg.AllowedOrigins)(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	h = metrics.Instrument(h)
	h = middleware.RequestID(h)
	return h
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	requireAuth := middleware.RequireAuth(s.accounts, s.logger.With("component", "auth"))
	user := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(h))
	}
	admin := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, requireAuth(middleware.RequireAdmin(h)))
	}

	// Session and profile
	user("GET /auth/me", s.accountH.Me)
	user("POST /auth/logout", s.accountH.Logout)
	user("PUT /usuarios/me", s.accountH.UpdateProfile)
	user("PUT /usuarios/me/password", s.accountH.ChangePassword)

	// User administration
	admin("GET /usuarios", s.accountH.ListUsers)
	admin("POST /usuarios/{id}/desactivar", s.accountH.Deactivate)
	admin("POST /usuarios/{id}/activar", s.accountH.Activate)
	admin("PUT /usuarios/{id}/membresia", s.accountH.SetTier)

	// Reference data
	user("GET /membresias", s.accountH.ListTiers)
	user("GET /roles", s.accountH.ListRoles)

	// Children
	user("GET /hijos", s.childH.List)
	user("POST /hijos", s.childH.Create)
	user("GET /hijos/{id}", s.childH.Get)
	user("PUT /hijos/{id}", s.childH.Update)
	user("DELETE /hijos/{id}", s.childH.Delete)

	// Restrictions
	user("GET /hijos/{id}/restricciones", s.childH.ListRestrictions)
	user("POST /hijos/{id}/restricciones", s.childH.CreateRestriction)
	user("PUT /restricciones/{id}", s.childH.UpdateRestriction)
	user("DELETE /restricciones/{id}", s.childH.DeleteRestriction)
	user("GET /restricciones/{id}/excepciones", s.childH.ListExceptions)
	user("POST /restricciones/{id}/excepciones", s.childH.AddException)

	// Addresses
	user("GET /direcciones", s.childH.ListAddresses)
	user("POST /direcciones", s.childH.CreateAddress)
	user("PUT /direcciones/{id}", s.childH.UpdateAddress)
	user("DELETE /direcciones/{id}", s.childH.DeleteAddress)

	// Lunchboxes
	user("GET /loncheras", s.lunchboxH.List)
	user("POST /loncheras", s.lunchboxH.Create)
	user("GET /loncheras/{id}", s.lunchboxH.Get)
	user("PUT /loncheras/{id}", s.lunchboxH.Update)
	user("DELETE /loncheras/{id}", s.lunchboxH.Delete)
	user("GET /loncheras/{id}/resumen", s.lunchboxH.Summary)
	user("GET /loncheras/hijo/{hijo_id}/fecha/{fecha}", s.lunchboxH.GetByDate)
	user("POST /loncheras/{id}/alimentos", s.lunchboxH.AddItem)
	user("DELETE /loncheras/{id}/alimentos/{fid}", s.lunchboxH.RemoveItem)
	user("POST /loncheras/{id}/confirmar", s.lunchboxH.Confirm)
	user("GET /estadisticas/hijos/{id}", s.lunchboxH.ChildStats)

	// Food catalog
	user("GET /alimentos", s.foodH.List)
	user("GET /alimentos/activos", s.foodH.ListActive)
	user("GET /alimentos/buscar", s.foodH.Search)
	user("GET /alimentos/tipo/{tipo}", s.foodH.ListByCategory)
	user("GET /alimentos/{id}", s.foodH.Get)
	admin("POST /alimentos", s.foodH.Create)
	admin("PUT /alimentos/{id}", s.foodH.Update)
	admin("DELETE /alimentos/{id}", s.foodH.Delete)
	admin("POST /alimentos/{id}/restaurar", s.foodH.Restore)
	admin("GET /alimentos/historial/{id}", s.foodH.History)

	// WebSocket
	user("GET "+middleware.WebSocketPath, ws.HandleWebSocket(s.hub, s.cfg.AllowedOrigins, s.logger.With("component", "websocket")))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.ByIP, s.cfg.LoginRateLimit, s.cfg.LoginRateWindow)
	return rl(h).ServeHTTP
}
