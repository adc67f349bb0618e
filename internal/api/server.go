package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/models"
	"github.com/Kerhoff/shoplist/internal/service"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

// Services is the business layer the HTTP API depends on.
type Services interface {
	Authenticate(token string) (int64, error)
	DBTime(ctx context.Context) (time.Time, error)

	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	GetSettings(ctx context.Context, userID int64) (*models.Profile, error)
	UpdateName(ctx context.Context, userID int64, name string) error
	UpdateSettings(ctx context.Context, userID int64, language, currency string) error
	DeleteAccount(ctx context.Context, userID int64, password string) error

	CreateList(ctx context.Context, userID int64, name string, items []models.NewItem) (int64, error)
	GetOverview(ctx context.Context, userID int64) (*models.Overview, error)
	GetShoppingList(ctx context.Context, listID, userID int64) (*models.List, error)
	GetListDetail(ctx context.Context, listID, userID int64) (*models.ListDetail, error)
	DeleteList(ctx context.Context, listID, userID int64) error
	CompletePurchase(ctx context.Context, listID, userID int64, items []models.PurchaseItem) error
	AddItems(ctx context.Context, listID, userID int64, items []models.NewItem) (int, error)
	UpdateItemPrice(ctx context.Context, itemID, userID int64, price decimal.Decimal) error
	PreviewPurchase(ctx context.Context, listID, userID int64, items []models.PurchaseItem) (decimal.Decimal, error)
}

// Server provides the HTTP API.
type Server struct {
	svc      Services
	logger   *logrus.Logger
	metrics  *Metrics
	validate *validator.Validate
	mux      *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it. metrics
// may be nil.
func NewServer(svc Services, logger *logrus.Logger, metrics *Metrics) *Server {
	s := &Server{
		svc:      svc,
		logger:   logger,
		metrics:  metrics,
		validate: newValidator(),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.metrics != nil {
		h = s.metrics.Middleware(h)
	}
	return s.requestID(s.logRequests(h))
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func (s *Server) routes() {
	// API – Users
	s.mux.HandleFunc("POST /api/users/register", s.handleRegister)
	s.mux.HandleFunc("POST /api/users/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/users/settings", s.authed(s.handleGetSettings))
	s.mux.HandleFunc("PUT /api/users/settings/name", s.authed(s.handleUpdateName))
	s.mux.HandleFunc("PUT /api/users/settings/general", s.authed(s.handleUpdateSettings))
	s.mux.HandleFunc("DELETE /api/users/settings", s.authed(s.handleDeleteAccount))

	// API – Lists
	s.mux.HandleFunc("POST /api/lists", s.authed(s.handleCreateList))
	s.mux.HandleFunc("GET /api/lists/{userId}", s.authed(s.handleGetOverview))
	s.mux.HandleFunc("GET /api/lists/shopping/{listId}", s.authed(s.handleGetShoppingList))
	s.mux.HandleFunc("GET /api/lists/completeDetails/{listId}", s.authed(s.handleGetListDetail))
	s.mux.HandleFunc("DELETE /api/lists/{listId}", s.authed(s.handleDeleteList))
	s.mux.HandleFunc("PUT /api/lists/{listId}/complete", s.authed(s.handleCompletePurchase))
	s.mux.HandleFunc("POST /api/lists/{listId}/items", s.authed(s.handleAddItems))
	s.mux.HandleFunc("POST /api/lists/{listId}/preview", s.authed(s.handlePreviewPurchase))
	s.mux.HandleFunc("PUT /api/lists/items/{itemId}/price", s.authed(s.handleUpdateItemPrice))

	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// ---------------------------------------------------------------------------
// JSON helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Message: message})
}

// respondServiceError maps a service error to a status code. Unexpected
// errors are logged and answered with a generic message built from action.
func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request", Errors: verr.Fields})
	case errors.Is(err, service.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrUnknownItems):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrListCompleted), errors.Is(err, service.ErrEmailTaken):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	default:
		s.requestLogger(r).WithError(err).Errorf("failed to %s", action)
		s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to %s", action))
	}
}

// decodeJSON reads the request body into dst and validates it. It writes the
// error response itself; the caller should return immediately when ok is
// false.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) (ok bool) {
	if r.Body == nil || r.Body == http.NoBody {
		s.respondError(w, http.StatusBadRequest, "request body is empty")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			s.respondJSON(w, http.StatusBadRequest, errorResponse{
				Message: "invalid request",
				Errors:  fieldErrors(verrs),
			})
			return false
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// pathID extracts the named path value and converts it to int64.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, fmt.Errorf("missing %s in path", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s in path", name)
	}
	return id, nil
}

// requirePathID reads a positive integer path value. It writes a 400
// response and returns false when the value is missing or invalid.
func (s *Server) requirePathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := pathID(r, name)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now, err := s.svc.DBTime(r.Context())
	if err != nil {
		s.requestLogger(r).WithError(err).Warn("health check failed")
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "dbTime": now})
}
