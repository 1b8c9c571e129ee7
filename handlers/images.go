package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pixelflow/imagestorebackend/catalog"
	"github.com/pixelflow/imagestorebackend/config"
	"github.com/pixelflow/imagestorebackend/ingest"
	"github.com/pixelflow/imagestorebackend/media"
	"github.com/pixelflow/imagestorebackend/models"
)

// multipart parse threshold; larger uploads spill to temp files, which is
// the pipeline's "transient location"
const multipartMemoryLimit = 32 << 20

type ImageHandler struct {
	Cfg       config.Config
	Catalog   *catalog.Store
	Store     media.Store
	Pipeline  *ingest.Pipeline
	Validator media.Validator
	Cache     *PreviewCache
}

// uploadedImage is the per-file success summary in a batch response.
type uploadedImage struct {
	ID               string               `json:"id"`
	OriginalFilename string               `json:"original_filename"`
	Metadata         models.ImageMetadata `json:"metadata"`
	CreatedAt        int64                `json:"created_at"`
}

// failedUpload is the per-file failure entry in a batch response.
type failedUpload struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Error    string `json:"error"`
}

// UploadImages ingests a multipart batch. The batch never fails atomically:
// each file succeeds or fails on its own and the response aggregates both
// lists, so the status is 201 even when individual files were rejected.
func (ih *ImageHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "Failed to parse multipart form: "+err.Error())
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteAPIError(w, http.StatusBadRequest, CodeBadRequest, "No files uploaded (form field 'files' missing or empty)")
		return
	}

	if err := ih.Validator.CheckBatch(len(files)); err != nil {
		WriteAPIError(w, http.StatusBadRequest, CodeTooManyFiles, err.Error())
		return
	}

	uploaded := make([]uploadedImage, 0, len(files))
	failed := make([]failedUpload, 0)

	for _, fh := range files {
		declaredMime := fh.Header.Get("Content-Type")

		if err := ih.Validator.CheckFile(fh.Filename, declaredMime, fh.Size); err != nil {
			failed = append(failed, failedUpload{Filename: fh.Filename, Code: uploadErrorCode(err), Error: err.Error()})
			continue
		}

		src, err := fh.Open()
		if err != nil {
			failed = append(failed, failedUpload{Filename: fh.Filename, Code: CodeInternal, Error: "Could not open uploaded file"})
			continue
		}

		record, err := ih.Pipeline.Ingest(src, fh.Filename, declaredMime)
		src.Close()
		if err != nil {
			log.Printf("upload: ingestion of '%s' failed: %v", fh.Filename, err)
			failed = append(failed, failedUpload{Filename: fh.Filename, Code: uploadErrorCode(err), Error: err.Error()})
			continue
		}

		uploaded = append(uploaded, uploadedImage{
			ID:               record.ID,
			OriginalFilename: record.OriginalFilename,
			Metadata:         record.Metadata,
			CreatedAt:        record.CreatedAt,
		})
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"uploaded_count": len(uploaded),
		"failed_count":   len(failed),
		"uploaded":       uploaded,
		"failed":         failed,
	})
}

// uploadErrorCode maps the error taxonomy onto client-facing codes.
func uploadErrorCode(err error) string {
	var procErr *ingest.ProcessingError
	switch {
	case errors.Is(err, media.ErrInvalidFormat):
		return CodeInvalidFormat
	case errors.Is(err, media.ErrFileTooLarge):
		return CodePayloadTooLarge
	case errors.Is(err, media.ErrTooManyFiles):
		return CodeTooManyFiles
	case errors.As(err, &procErr):
		return CodeProcessing
	case errors.Is(err, catalog.ErrPersist):
		return CodeStoreFailure
	default:
		return CodeInternal
	}
}

// ListImages returns all records, newest first.
func (ih *ImageHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ih.Catalog.List())
}

// GetImage returns the full record for one id.
func (ih *ImageHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "image_id")
	record, err := ih.Catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "No image with id "+id)
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to look up image")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// DeleteImage removes the catalog entry and then deletes both files
// best-effort. A file already missing on disk never blocks the removal.
func (ih *ImageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "image_id")
	removed, err := ih.Catalog.Remove(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "No image with id "+id)
			return
		}
		log.Printf("delete: failed to remove record %s: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeStoreFailure, "Failed to remove catalog record")
		return
	}

	if err := ih.Store.Delete(removed.OriginalPath); err != nil {
		log.Printf("delete: cleanup of original %s failed: %v", removed.OriginalPath, err)
	}
	if err := ih.Store.Delete(removed.PreviewPath); err != nil {
		log.Printf("delete: cleanup of preview %s failed: %v", removed.PreviewPath, err)
	}
	if ih.Cache != nil {
		ih.Cache.Invalidate(removed.ID)
	}

	writeJSON(w, http.StatusOK, removed)
}
