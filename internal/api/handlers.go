// Package api exposes the HTTP surface of the viewer.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/datascope/backend/internal/compare"
	"github.com/datascope/backend/internal/export"
	"github.com/datascope/backend/internal/prefs"
	"github.com/datascope/backend/internal/session"
	"github.com/datascope/backend/internal/storage"
)

// Handler handles API requests.
type Handler struct {
	store    storage.Store
	sessions *session.Manager
	resolver *compare.Resolver
	exporter *export.Exporter
	prefs    *prefs.Store
	logger   *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(store storage.Store, sessions *session.Manager, resolver *compare.Resolver, exporter *export.Exporter, prefStore *prefs.Store, logger *zap.Logger) *Handler {
	return &Handler{
		store:    store,
		sessions: sessions,
		resolver: resolver,
		exporter: exporter,
		prefs:    prefStore,
		logger:   logger,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
