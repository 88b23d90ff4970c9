package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes wires every API endpoint onto the echo instance.
func RegisterRoutes(e *echo.Echo, h *Handler, hub *EventHub, enableMetrics bool) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", h.HandleHealth)

	// Push events (upload/parse feedback)
	apiGroup.GET("/ws/events", hub.HandleWebSocket)

	// File management
	apiGroup.POST("/files/upload", h.HandleUploadFile)
	apiGroup.POST("/files/upload/base64", h.HandleUploadBase64)
	apiGroup.GET("/files/recent", h.HandleRecentFiles)
	apiGroup.GET("/files/:id", h.HandleGetFile)
	apiGroup.DELETE("/files/:id", h.HandleDeleteFile)
	apiGroup.PUT("/files/:id", h.HandleRenameFile)

	// Document sessions
	apiGroup.POST("/documents", h.HandleLoadDocument)
	apiGroup.GET("/documents/:sessionId/status", h.HandleSessionStatus)
	apiGroup.GET("/documents/:sessionId/summary", h.HandleDocumentSummary)
	apiGroup.GET("/documents/:sessionId/records", h.HandleGetRecords)
	apiGroup.GET("/documents/:sessionId/records/msgpack", h.HandleGetRecordsMsgpack)
	apiGroup.GET("/documents/:sessionId/records/:index", h.HandleGetRecord)
	apiGroup.POST("/documents/:sessionId/keepalive", h.HandleSessionKeepAlive)

	// Navigation
	apiGroup.POST("/documents/:sessionId/active", h.HandleSetActive)
	apiGroup.POST("/documents/:sessionId/active/next", h.HandleNextRecord)
	apiGroup.POST("/documents/:sessionId/active/prev", h.HandlePrevRecord)

	// Modifications
	apiGroup.PUT("/documents/:sessionId/records/:index/modification", h.HandleSetModification)
	apiGroup.DELETE("/documents/:sessionId/records/:index/modification", h.HandleClearModification)
	apiGroup.DELETE("/documents/:sessionId/modifications", h.HandleDiscardModifications)
	apiGroup.GET("/documents/:sessionId/changes", h.HandleGetChanges)

	// Schema explorer
	apiGroup.GET("/documents/:sessionId/schema", h.HandleGetSchema)
	apiGroup.GET("/documents/:sessionId/schema/jsonschema", h.HandleExportSchema)

	// Compare view
	apiGroup.PUT("/documents/:sessionId/compare/:side", h.HandleSetCompareSource)
	apiGroup.POST("/documents/:sessionId/compare/swap", h.HandleSwapCompare)
	apiGroup.GET("/documents/:sessionId/compare", h.HandleGetCompare)

	// Export
	apiGroup.GET("/documents/:sessionId/export", h.HandleDownloadDocument)
	apiGroup.GET("/documents/:sessionId/records/:index/export", h.HandleDownloadRecord)
	apiGroup.GET("/documents/:sessionId/records/:index/text", h.HandleRecordText)

	// Preferences
	apiGroup.GET("/preferences", h.HandleGetPreferences)
	apiGroup.PUT("/preferences", h.HandlePutPreferences)

	if enableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}
