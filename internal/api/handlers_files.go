package api

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/datascope/backend/internal/parser"
)

// HandleUploadFile accepts a multipart file (drag-and-drop or file picker)
// and saves it to storage.
func (h *Handler) HandleUploadFile(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return RespondWithError(c, NewBadRequestError("file field is required", err))
	}

	if !parser.IsSupportedExtension(fileHeader.Filename) {
		return RespondWithError(c, NewBadRequestError(
			fmt.Sprintf("unsupported file type: %s", fileHeader.Filename), nil))
	}

	src, err := fileHeader.Open()
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to read upload", err))
	}
	defer src.Close()

	info, err := h.store.Save(fileHeader.Filename, src)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to save file", err))
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleUploadBase64 accepts a file as base64 JSON, for clients that cannot
// send multipart bodies.
func (h *Handler) HandleUploadBase64(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
		Data string `json:"data"` // Base64-encoded file content
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid JSON body", err))
	}
	if req.Name == "" || req.Data == "" {
		return RespondWithError(c, NewBadRequestError("name and data are required", nil))
	}
	if !parser.IsSupportedExtension(req.Name) {
		return RespondWithError(c, NewBadRequestError(
			fmt.Sprintf("unsupported file type: %s", req.Name), nil))
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return RespondWithError(c, NewBadRequestError("invalid base64 data", err))
	}

	info, err := h.store.SaveBytes(req.Name, decoded)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to save file", err))
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleRecentFiles returns a list of recently uploaded files.
func (h *Handler) HandleRecentFiles(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to list files", err))
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file.
func (h *Handler) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return RespondWithError(c, NewNotFoundError("file", id))
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile removes a file from storage.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return RespondWithError(c, NewNotFoundError("file", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameFile updates the display name of a file.
func (h *Handler) HandleRenameFile(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid request body", err))
	}
	if req.Name == "" {
		return RespondWithError(c, NewBadRequestError("name is required", nil))
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return RespondWithError(c, NewNotFoundError("file", id))
	}
	return c.JSON(http.StatusOK, info)
}
