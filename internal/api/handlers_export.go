package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HandleDownloadDocument re-serializes the full document per its format and
// triggers a browser download.
func (h *Handler) HandleDownloadDocument(c echo.Context) error {
	id := c.Param("sessionId")
	file, err := h.exporter.Document(id)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("export failed", err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

// HandleDownloadRecord downloads the current record as standalone JSON.
func (h *Handler) HandleDownloadRecord(c echo.Context) error {
	id := c.Param("sessionId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid record index", err))
	}

	file, exportErr := h.exporter.Record(id, index)
	if exportErr != nil {
		return RespondWithError(c, NewBadRequestError("export failed", exportErr))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename=%q`, file.Name))
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}

// HandleRecordText returns the record's JSON text for clipboard use.
func (h *Handler) HandleRecordText(c echo.Context) error {
	id := c.Param("sessionId")
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid record index", err))
	}

	text, exportErr := h.exporter.RecordText(id, index)
	if exportErr != nil {
		return RespondWithError(c, NewNotFoundError("record", c.Param("index")))
	}
	return c.String(http.StatusOK, text)
}
