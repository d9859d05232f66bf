package http

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"universe/internal/apperr"
	"universe/internal/model"
)

const requestIDHeader = "X-Request-ID"

type identityKey struct{}

func identityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(model.Identity)
	return id, ok
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized: Missing or invalid token")
			return
		}
		identity, err := s.auth.ResolveSession(r.Context(), token)
		if err != nil {
			s.writeAppError(w, r, err, "Internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// queryTokenFallback lets browser websocket clients, which cannot set
// headers, pass the session token as ?token=.
func queryTokenFallback(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			if token := r.URL.Query().Get("token"); token != "" {
				r.Header.Set("Authorization", "Bearer "+token)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func allowRole(identity model.Identity, roles []model.Role) bool {
	return slices.Contains(roles, identity.Role)
}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := identityFromContext(r.Context())
			if !ok || identity.Role == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !allowRole(identity, roles) {
				writeError(w, http.StatusForbidden, "Forbidden: Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(r.Method, route, status, elapsed)

		entry := s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
			"duration":   elapsed.String(),
		})
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	})
}

// writeAppError renders err as {error, details?}. Errors that are not
// *apperr.Error, and internal ones, are logged and answered with a generic
// message.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	appErr := apperr.From(err)
	if appErr == nil {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("unhandled error")
		writeError(w, http.StatusInternalServerError, fallback)
		return
	}
	if appErr.Kind == apperr.KindInternal {
		s.log.WithError(err).WithField("path", r.URL.Path).Error(appErr.Message)
	}
	writeJSON(w, appErr.Status(), errorResponse{Error: appErr.Message, Details: appErr.Details})
}
