package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"veestributes/config"
	"veestributes/core/auth"
	"veestributes/core/task"
	"veestributes/logger"
	"veestributes/repository"
	"veestributes/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo     repository.UserRepository
	releaseRepo  repository.ReleaseRepository
	fileRepo     repository.FileRepository
	platformRepo repository.PlatformRepository
	attemptRepo  repository.DistributionRepository
	processor    *task.Processor
	store        *storage.Store
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	releaseRepo repository.ReleaseRepository,
	fileRepo repository.FileRepository,
	platformRepo repository.PlatformRepository,
	attemptRepo repository.DistributionRepository,
	processor *task.Processor,
	store *storage.Store,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		releaseRepo:  releaseRepo,
		fileRepo:     fileRepo,
		platformRepo: platformRepo,
		attemptRepo:  attemptRepo,
		processor:    processor,
		store:        store,
		cfg:          cfg,
	}
}

type contextKey string

const (
	contextKeyUserID   contextKey = "userID"
	contextKeyUsername contextKey = "username"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware checks for a valid JWT token and stores the user
// identity in the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := auth.ParseToken(parts[1])
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), contextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, contextKeyUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(contextKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// HealthHandler reports liveness.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
