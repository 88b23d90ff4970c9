package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/datascope/backend/internal/schema"
)

// HandleGetSchema returns the inferred schema tree for the loaded document.
func (h *Handler) HandleGetSchema(c echo.Context) error {
	id := c.Param("sessionId")
	tree, ok := h.sessions.Schema(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("document", id))
	}
	h.sessions.TouchSession(id)
	return c.JSON(http.StatusOK, tree)
}

// HandleExportSchema renders the inferred schema as a JSON Schema document.
func (h *Handler) HandleExportSchema(c echo.Context) error {
	id := c.Param("sessionId")
	doc, ok := h.sessions.Document(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("document", id))
	}
	tree, ok := h.sessions.Schema(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("document", id))
	}
	return c.JSON(http.StatusOK, schema.Export(tree, doc.FileName))
}
