package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/guestlink/guestlink/internal/hooks"
)

// VersionReader reports the stored version marker.
type VersionReader interface {
	InstalledVersion(ctx context.Context) (string, error)
}

// AdminHandler serves operator status.
type AdminHandler struct {
	installer       VersionReader
	version         string
	platformVersion string
	dashboardHook   hooks.DashboardPoint
	logger          *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(installer VersionReader, version, platformVersion string, dashboardHook hooks.DashboardPoint, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		installer:       installer,
		version:         version,
		platformVersion: platformVersion,
		dashboardHook:   dashboardHook,
		logger:          logger,
	}
}

// StatusResponse describes the running installation.
type StatusResponse struct {
	Version          string `json:"version"`
	InstalledVersion string `json:"installed_version"`
	PlatformVersion  string `json:"platform_version"`
	DashboardHook    string `json:"dashboard_hook"`
}

// Status reports versions and the selected dashboard hook point.
//
// GET /api/v1/admin/status
func (h *AdminHandler) Status(w http.ResponseWriter, r *http.Request) {
	installed, err := h.installer.InstalledVersion(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "read version marker failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read installation status")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		Version:          h.version,
		InstalledVersion: installed,
		PlatformVersion:  h.platformVersion,
		DashboardHook:    string(h.dashboardHook),
	})
}
