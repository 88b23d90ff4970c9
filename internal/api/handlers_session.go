package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/datascope/backend/internal/models"
)

// HandleLoadDocument starts a parsing session for an uploaded file.
func (h *Handler) HandleLoadDocument(c echo.Context) error {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.FileID == "" {
		return RespondWithError(c, NewBadRequestError("fileId is required", nil))
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return RespondWithError(c, NewNotFoundError("file", req.FileID))
	}
	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to resolve file path", err))
	}

	sess, err := h.sessions.Load(info.ID, path, info.Name)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to start session", err))
	}

	return c.JSON(http.StatusAccepted, sess)
}

// HandleSessionStatus returns the status of a document session.
func (h *Handler) HandleSessionStatus(c echo.Context) error {
	id := c.Param("sessionId")
	sess, ok := h.sessions.GetSession(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	h.sessions.TouchSession(id)
	return c.JSON(http.StatusOK, sess)
}

// HandleDocumentSummary returns the document metadata without its records.
func (h *Handler) HandleDocumentSummary(c echo.Context) error {
	id := c.Param("sessionId")
	doc, ok := h.sessions.Document(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("document", id))
	}
	h.sessions.TouchSession(id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"id":          doc.ID,
		"fileName":    doc.FileName,
		"format":      doc.Format,
		"summary":     doc.Summary,
		"recordCount": doc.RecordCount,
		"byteSize":    doc.ByteSize,
	})
}

// recordWindow is the shared paging logic for the record endpoints.
func (h *Handler) recordWindow(c echo.Context) ([]models.Record, int, int, int, *APIError) {
	id := c.Param("sessionId")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 5000 {
		pageSize = 200
	}

	records, total, ok := h.sessions.Records(id, page, pageSize)
	if !ok {
		return nil, 0, 0, 0, NewNotFoundError("session", id)
	}
	h.sessions.TouchSession(id)
	return records, total, page, pageSize, nil
}

// HandleGetRecords returns a paginated window of records as JSON, with the
// modification overlay applied.
func (h *Handler) HandleGetRecords(c echo.Context) error {
	records, total, page, pageSize, apiErr := h.recordWindow(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// HandleGetRecordsMsgpack returns the same window msgpack-encoded, for the
// virtualized grid's bulk fetches.
func (h *Handler) HandleGetRecordsMsgpack(c echo.Context) error {
	records, total, page, pageSize, apiErr := h.recordWindow(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}

	// Encode with json tag names so both record endpoints share one wire shape.
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	err := enc.Encode(map[string]interface{}{
		"records":  records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to encode records", err))
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", buf.Bytes())
}

// HandleGetRecord returns a single record with the overlay applied.
func (h *Handler) HandleGetRecord(c echo.Context) error {
	id := c.Param("sessionId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid record index", err))
	}

	rec, modified, ok := h.sessions.Record(id, index)
	if !ok {
		return RespondWithError(c, NewNotFoundError("record", c.Param("index")))
	}
	h.sessions.TouchSession(id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"record":   rec,
		"modified": modified,
	})
}

// HandleSetActive moves the active record index, clamped to the valid range.
func (h *Handler) HandleSetActive(c echo.Context) error {
	id := c.Param("sessionId")
	var req struct {
		Index int `json:"index"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}

	index, ok := h.sessions.SetActive(id, req.Index)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]int{"activeIndex": index})
}

// HandleNextRecord advances the active record.
func (h *Handler) HandleNextRecord(c echo.Context) error {
	id := c.Param("sessionId")
	index, ok := h.sessions.Next(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]int{"activeIndex": index})
}

// HandlePrevRecord moves the active record back.
func (h *Handler) HandlePrevRecord(c echo.Context) error {
	id := c.Param("sessionId")
	index, ok := h.sessions.Prev(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.JSON(http.StatusOK, map[string]int{"activeIndex": index})
}

// HandleSessionKeepAlive refreshes the session's last-accessed time.
func (h *Handler) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if !h.sessions.TouchSession(id) {
		return RespondWithError(c, NewNotFoundError("session", id))
	}
	return c.NoContent(http.StatusNoContent)
}
