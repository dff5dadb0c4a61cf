package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/altmarkets/parimutuel/internal/domain"
)

// ArchiveHandler serves the cold-storage archive of pruned rounds and
// wagers. Registered only when archiving is configured.
type ArchiveHandler struct {
	blobs  domain.BlobReader
	logger *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(blobs domain.BlobReader, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		blobs:  blobs,
		logger: logger.With(slog.String("handler", "archive")),
	}
}

// ListArchives lists archive objects under an optional ?prefix=.
// GET /api/archives
func (h *ArchiveHandler) ListArchives(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")

	infos, err := h.blobs.List(r.Context(), prefix)
	if err != nil {
		writeError(w, err)
		return
	}

	type object struct {
		Path         string    `json:"path"`
		Size         int64     `json:"size"`
		LastModified time.Time `json:"last_modified"`
	}
	out := make([]object, 0, len(infos))
	for _, info := range infos {
		out = append(out, object{
			Path:         info.Path,
			Size:         info.Size,
			LastModified: info.LastModified,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GetArchive streams one archive object as NDJSON.
// GET /api/archives/{path...}
func (h *ArchiveHandler) GetArchive(w http.ResponseWriter, r *http.Request) {
	path := r.PathValue("path")
	if path == "" {
		writeError(w, domain.ErrNotFound)
		return
	}

	body, err := h.blobs.Get(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	if _, err := io.Copy(w, body); err != nil {
		h.logger.WarnContext(r.Context(), "archive stream interrupted",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}
