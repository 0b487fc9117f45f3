package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/nurtureapp/nurture-api/internal/service"
)

// maxIdentifyImageBytes caps uploaded identification images at 10 MiB.
const maxIdentifyImageBytes = 10 << 20

// CatalogHandler exposes the species catalog: text search, detail lookup
// and photo identification.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// Search handles GET /search?q=
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	results, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("catalog search failed",
			slog.String("query", r.URL.Query().Get("q")),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, results)
}

// Species handles GET /species?prefix=
func (h *CatalogHandler) Species(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	results, err := h.catalog.Species(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.logger.Error("species prefix search failed",
			slog.String("prefix", r.URL.Query().Get("prefix")),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, results)
}

// Info handles GET /info/{catalogId}
func (h *CatalogHandler) Info(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	catalogID, err := strconv.Atoi(r.PathValue("catalogId"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "catalog id must be a number")
		return
	}

	detail, err := h.catalog.Info(r.Context(), catalogID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

// Identify handles POST /identify. The photo arrives as the multipart
// form field "image".
func (h *CatalogHandler) Identify(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireOwner(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(maxIdentifyImageBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxIdentifyImageBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "failed to read image")
		return
	}

	match, err := h.catalog.Identify(r.Context(), header.Filename, image)
	if err != nil {
		h.logger.Error("plant identification failed",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, match)
}
