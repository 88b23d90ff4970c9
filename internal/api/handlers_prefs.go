package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/datascope/backend/internal/models"
)

// HandleGetPreferences returns the persisted UI preferences, falling back to
// defaults when nothing has been saved yet.
func (h *Handler) HandleGetPreferences(c echo.Context) error {
	p, err := h.prefs.Get()
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to read preferences", err))
	}
	return c.JSON(http.StatusOK, p)
}

// HandlePutPreferences replaces the persisted UI preferences wholesale.
func (h *Handler) HandlePutPreferences(c echo.Context) error {
	var p models.Preferences
	if err := c.Bind(&p); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}

	if err := h.prefs.Put(p); err != nil {
		return RespondWithError(c, NewInternalError("failed to save preferences", err))
	}
	return c.JSON(http.StatusOK, p)
}
