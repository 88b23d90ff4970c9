package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/datascope/backend/internal/models"
)

// HandleSetCompareSource selects one side of the compare view.
func (h *Handler) HandleSetCompareSource(c echo.Context) error {
	id := c.Param("sessionId")
	side := c.Param("side")
	if side != "left" && side != "right" {
		return RespondWithError(c, NewBadRequestError("side must be left or right", nil))
	}

	var src models.CompareSource
	if err := c.Bind(&src); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	switch src.Kind {
	case models.CompareKindRecord, models.CompareKindColumn, models.CompareKindFile:
	default:
		return RespondWithError(c, NewBadRequestError("unknown compare source kind", nil))
	}

	if err := h.sessions.SetCompare(id, side, src); err != nil {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleSwapCompare exchanges the two compare sources.
func (h *Handler) HandleSwapCompare(c echo.Context) error {
	id := c.Param("sessionId")
	if err := h.sessions.SwapCompare(id); err != nil {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetCompare resolves both sources and returns them with a line diff.
func (h *Handler) HandleGetCompare(c echo.Context) error {
	id := c.Param("sessionId")
	result, err := h.resolver.Compare(id)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("compare failed", err))
	}
	h.sessions.TouchSession(id)
	return c.JSON(http.StatusOK, result)
}
