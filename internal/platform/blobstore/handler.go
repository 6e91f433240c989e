package blobstore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Handler exposes patient image upload and download.
type Handler struct {
	store  Store
	logger zerolog.Logger
}

func NewHandler(store Store, logger zerolog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/files", h.Upload)
	api.GET("/files", h.Download)
}

type uploadResponse struct {
	Message string      `json:"message"`
	Files   []*Metadata `json:"files"`
}

// Upload stores every multipart "images" part as {patient_name}_{index}.jpg.
func (h *Handler) Upload(c echo.Context) error {
	patientName := strings.TrimSpace(c.FormValue("patient_name"))
	if patientName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_name is required")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image files provided")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no image files provided")
	}

	stored := make([]*Metadata, 0, len(files))
	for i, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
		}
		contentType := fh.Header.Get(echo.HeaderContentType)
		if contentType == "" {
			contentType = "image/jpeg"
		}
		meta, err := h.store.Put(c.Request().Context(), fmt.Sprintf("%s_%d.jpg", patientName, i), contentType, src)
		src.Close()
		if err != nil {
			if errors.Is(err, ErrFileTooLarge) {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
			}
			h.logger.Error().Err(err).Str("patient_name", patientName).Int("index", i).Msg("image upload failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to store image")
		}
		stored = append(stored, meta)
	}
	return c.JSON(http.StatusCreated, uploadResponse{Message: "Images uploaded successfully", Files: stored})
}

// Download streams the blob named by the filename query parameter.
func (h *Handler) Download(c echo.Context) error {
	name := c.QueryParam("filename")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "filename is required")
	}
	rc, meta, err := h.store.GetByName(c.Request().Context(), name)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "file not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", meta.FileName))
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}
