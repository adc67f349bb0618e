package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/shoplist/internal/auth"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
)

const requestIDHeader = "X-Request-ID"

// requestID tags every request with an id, taken from the X-Request-ID header
// when the client sent one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
	})
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.requestLogger(r).WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request handled")
	})
}

func (s *Server) requestLogger(r *http.Request) *logrus.Entry {
	fields := logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if id, ok := r.Context().Value(ctxKeyRequestID).(string); ok {
		fields["request_id"] = id
	}
	if userID, ok := userIDFrom(r.Context()); ok {
		fields["user_id"] = userID
	}
	return s.logger.WithFields(fields)
}

// authed requires a valid bearer token and stores the caller's user id in the
// request context. Missing and expired tokens get 401, any other invalid token
// gets 403.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if header == "" || !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			s.respondError(w, http.StatusUnauthorized, "authorization token required")
			return
		}

		userID, err := s.svc.Authenticate(strings.TrimSpace(token))
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				s.respondError(w, http.StatusUnauthorized, "token expired, please log in again")
				return
			}
			s.respondError(w, http.StatusForbidden, "invalid token")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUserID, userID)))
	}
}

func userIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(int64)
	return id, ok
}

// currentUser returns the authenticated caller. It is only valid inside
// handlers wrapped by authed.
func currentUser(r *http.Request) int64 {
	id, _ := userIDFrom(r.Context())
	return id
}
