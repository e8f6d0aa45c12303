package handlers

import (
	"io"
	"net/http"

	"github.com/mkaraca/shelftalk/pkg"
)

// UploadHandler puts attachment bytes in the blob store and serves them
// back. Messages reference blobs by the returned ref.
type UploadHandler struct {
	store *pkg.BlobStore
}

// NewUploadHandler wires the handler.
func NewUploadHandler(store *pkg.BlobStore) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload handles POST /api/upload (multipart, field "file").
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()

	ref, err := h.store.Put(file, header)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, map[string]string{"blob_ref": ref})
}

// Serve handles GET /api/uploads/{ref}.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	f, err := h.store.Open(r.PathValue("ref"))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	defer f.Close()
	io.Copy(w, f)
}
