package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HandleSetModification records an unsaved edit for one record.
func (h *Handler) HandleSetModification(c echo.Context) error {
	id := c.Param("sessionId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid record index", err))
	}

	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if len(req.Value) == 0 {
		return RespondWithError(c, NewBadRequestError("value is required", nil))
	}

	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(req.Value))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return RespondWithError(c, NewBadRequestError("value is not valid JSON", err))
	}

	if err := h.sessions.SetModification(id, index, value); err != nil {
		return RespondWithError(c, NewNotFoundError("record", c.Param("index")))
	}

	hasChanges, _ := h.sessions.HasChanges(id)
	return c.JSON(http.StatusOK, map[string]bool{"hasChanges": hasChanges})
}

// HandleClearModification drops the edit on one record.
func (h *Handler) HandleClearModification(c echo.Context) error {
	id := c.Param("sessionId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid record index", err))
	}

	if err := h.sessions.ClearModification(id, index); err != nil {
		return RespondWithError(c, NewNotFoundError("session", id))
	}

	hasChanges, _ := h.sessions.HasChanges(id)
	return c.JSON(http.StatusOK, map[string]bool{"hasChanges": hasChanges})
}

// HandleDiscardModifications empties the modification map wholesale.
func (h *Handler) HandleDiscardModifications(c echo.Context) error {
	id := c.Param("sessionId")
	if err := h.sessions.DiscardModifications(id); err != nil {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]bool{"hasChanges": false})
}

// HandleGetChanges reports whether the session has unsaved edits.
func (h *Handler) HandleGetChanges(c echo.Context) error {
	id := c.Param("sessionId")
	hasChanges, ok := h.sessions.HasChanges(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]bool{"hasChanges": hasChanges})
}
