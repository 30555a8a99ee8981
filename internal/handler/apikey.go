package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/guestlink/guestlink/internal/auth"
	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/repository"
)

// APIKeyStore persists integration API keys.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByID(ctx context.Context, id string) (*model.APIKey, error)
	ListAPIKeysByUserID(ctx context.Context, userID string) ([]*model.APIKey, error)
	RevokeAPIKey(ctx context.Context, id string) error
}

// APIKeyHandler handles API key management for operators.
type APIKeyHandler struct {
	logger *slog.Logger
	keys   APIKeyStore
	env    string
}

// NewAPIKeyHandler creates a new APIKeyHandler. env selects the key
// environment tag (live or test).
func NewAPIKeyHandler(logger *slog.Logger, keys APIKeyStore, env string) *APIKeyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIKeyHandler{logger: logger.With("component", "api_keys"), keys: keys, env: env}
}

type createAPIKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

// APIKeyResponse is a stored key without its secret.
type APIKeyResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name,omitempty"`
	KeyPrefix  string     `json:"key_prefix"`
	Scopes     []string   `json:"scopes"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// CreatedAPIKeyResponse carries the plaintext key, shown once.
type CreatedAPIKeyResponse struct {
	APIKeyResponse
	Key string `json:"key"`
}

func toAPIKeyResponse(k *model.APIKey) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		KeyPrefix:  k.KeyPrefix,
		Scopes:     k.Scopes,
		CreatedAt:  k.CreatedAt,
		LastUsedAt: k.LastUsedAt,
	}
}

// CreateAPIKey handles POST /api/v1/admin/api-keys
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	var req createAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	for _, scope := range req.Scopes {
		if !slices.Contains(model.ValidScopes, scope) {
			writeError(w, http.StatusBadRequest, "INVALID_SCOPE",
				"Invalid scope: "+scope+". Valid scopes: read, write, admin")
			return
		}
	}
	if len(req.Scopes) == 0 {
		req.Scopes = []string{model.ScopeRead}
	}

	key, plaintext, err := h.issue(ctx, authCtx.UserID, req.Name, req.Scopes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create API key")
		return
	}

	h.logger.InfoContext(ctx, "API key created",
		slog.String("key_id", key.ID),
		slog.String("key_prefix", key.KeyPrefix),
		slog.String("user_id", key.UserID),
	)

	writeJSON(w, http.StatusCreated, CreatedAPIKeyResponse{APIKeyResponse: toAPIKeyResponse(key), Key: plaintext})
}

// ListAPIKeys handles GET /api/v1/admin/api-keys
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	keys, err := h.keys.ListAPIKeysByUserID(ctx, authCtx.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list API keys", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list API keys")
		return
	}

	out := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		out = append(out, toAPIKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": out})
}

// RevokeAPIKey handles DELETE /api/v1/admin/api-keys/{key_id}
// Cached auth contexts for the key expire on their own TTL.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	key, ok := h.ownedActiveKey(ctx, w, chi.URLParam(r, "key_id"), authCtx.UserID)
	if !ok {
		return
	}

	if err := h.keys.RevokeAPIKey(ctx, key.ID); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			writeKeyNotFound(w)
			return
		}
		h.logger.ErrorContext(ctx, "failed to revoke API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke API key")
		return
	}

	h.logger.InfoContext(ctx, "API key revoked",
		slog.String("key_id", key.ID),
		slog.String("user_id", authCtx.UserID),
	)
	w.WriteHeader(http.StatusNoContent)
}

// RotateAPIKey handles POST /api/v1/admin/api-keys/{key_id}/rotate
// The replacement keeps the name and scopes; the old key is revoked.
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx := auth.AuthFromContext(ctx)
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	old, ok := h.ownedActiveKey(ctx, w, chi.URLParam(r, "key_id"), authCtx.UserID)
	if !ok {
		return
	}

	key, plaintext, err := h.issue(ctx, old.UserID, old.Name, old.Scopes)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to create rotated API key", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rotate API key")
		return
	}

	// The new key already exists, so a failed revoke is logged, not returned.
	if err := h.keys.RevokeAPIKey(ctx, old.ID); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke old API key during rotation", slog.String("error", err.Error()))
	}

	h.logger.InfoContext(ctx, "API key rotated",
		slog.String("old_key_id", old.ID),
		slog.String("new_key_id", key.ID),
	)

	writeJSON(w, http.StatusCreated, map[string]any{
		"old_key_id": old.ID,
		"new_key":    CreatedAPIKeyResponse{APIKeyResponse: toAPIKeyResponse(key), Key: plaintext},
	})
}

func (h *APIKeyHandler) issue(ctx context.Context, userID, name string, scopes []string) (*model.APIKey, string, error) {
	generated, err := auth.GenerateAPIKey(h.env)
	if err != nil {
		return nil, "", err
	}

	key := &model.APIKey{
		ID:        ulid.Make().String(),
		UserID:    userID,
		KeyHash:   generated.Hash,
		KeyPrefix: generated.Prefix,
		Scopes:    scopes,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.keys.CreateAPIKey(ctx, key); err != nil {
		return nil, "", err
	}
	return key, generated.Plaintext, nil
}

// ownedActiveKey loads keyID and checks the caller owns it. Missing,
// foreign and revoked keys all answer 404 to prevent enumeration.
func (h *APIKeyHandler) ownedActiveKey(ctx context.Context, w http.ResponseWriter, keyID, userID string) (*model.APIKey, bool) {
	if keyID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Key ID is required")
		return nil, false
	}

	key, err := h.keys.GetAPIKeyByID(ctx, keyID)
	if err != nil || key.UserID != userID || key.IsRevoked() {
		writeKeyNotFound(w)
		return nil, false
	}
	return key, true
}

func writeKeyNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found or already revoked")
}
