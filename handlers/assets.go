package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pixelflow/imagestorebackend/catalog"
	"github.com/pixelflow/imagestorebackend/media"
	"github.com/pixelflow/imagestorebackend/models"
)

// AssetHandler streams stored binaries back by record id and variant. It
// distinguishes "no such record" from "record exists but the file is gone",
// since the latter indicates drift between catalog and filesystem.
type AssetHandler struct {
	Catalog *catalog.Store
	Store   media.Store
	Cache   *PreviewCache
}

// ServeOriginal streams the relocated upload with its original content type.
func (ah *AssetHandler) ServeOriginal(w http.ResponseWriter, r *http.Request) {
	ah.serve(w, r, media.AssetTypeOriginal)
}

// ServePreview streams the derived preview, going through the byte cache
// first.
func (ah *AssetHandler) ServePreview(w http.ResponseWriter, r *http.Request) {
	ah.serve(w, r, media.AssetTypePreview)
}

func (ah *AssetHandler) serve(w http.ResponseWriter, r *http.Request, variant media.AssetType) {
	id := chi.URLParam(r, "image_id")
	record, err := ah.Catalog.Get(id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			WriteAPIError(w, http.StatusNotFound, CodeNotFound, "No image with id "+id)
			return
		}
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to look up image")
		return
	}

	relPath, contentType, displayName := variantInfo(record, variant)

	if variant == media.AssetTypePreview && ah.Cache != nil {
		if data, ok := ah.Cache.Get(id); ok {
			writeAssetHeaders(w, contentType, displayName, int64(len(data)))
			_, _ = io.Copy(w, bytes.NewReader(data))
			return
		}
	}

	reader, info, err := ah.Store.Get(relPath)
	if err != nil {
		if media.IsNotExist(err) {
			log.Printf("assets: drift detected for %s: catalog references %s but file is absent", id, relPath)
			WriteAPIError(w, http.StatusNotFound, CodeAssetMissing, fmt.Sprintf("Record %s exists but its %s asset is missing on disk", id, variant))
			return
		}
		log.Printf("assets: failed to open %s for %s: %v", relPath, id, err)
		WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to open asset")
		return
	}
	defer reader.Close()

	if variant == media.AssetTypePreview && ah.Cache != nil && info.Size() <= previewCacheMaxEntryBytes {
		data, err := io.ReadAll(reader)
		if err != nil {
			log.Printf("assets: failed to read preview %s: %v", relPath, err)
			WriteAPIError(w, http.StatusInternalServerError, CodeInternal, "Failed to read asset")
			return
		}
		ah.Cache.Set(id, data)
		writeAssetHeaders(w, contentType, displayName, int64(len(data)))
		_, _ = io.Copy(w, bytes.NewReader(data))
		return
	}

	writeAssetHeaders(w, contentType, displayName, info.Size())
	if _, err := io.Copy(w, reader); err != nil {
		log.Printf("assets: streaming %s for %s aborted: %v", relPath, id, err)
	}
}

// variantInfo resolves the stored path, content type, and suggested display
// filename for a variant of a record.
func variantInfo(record models.ImageRecord, variant media.AssetType) (relPath, contentType, displayName string) {
	if variant == media.AssetTypePreview {
		return record.PreviewPath, record.PreviewMimeType, record.PreviewFilename
	}
	return record.OriginalPath, record.MimeType, record.OriginalFilename
}

func writeAssetHeaders(w http.ResponseWriter, contentType, displayName string, size int64) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", displayName))
}
