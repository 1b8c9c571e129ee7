package handlers

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/facette/natsort"

	"github.com/pixelflow/imagestorebackend/catalog"
	"github.com/pixelflow/imagestorebackend/config"
	"github.com/pixelflow/imagestorebackend/media"
)

type SystemHandler struct {
	Cfg     config.Config
	Catalog *catalog.Store
	Store   media.Store
}

// Health reports service status, catalog size, and the configured limits.
func (sh *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"images": sh.Catalog.Count(),
		"limits": map[string]interface{}{
			"max_file_size":     sh.Cfg.MaxFileSize,
			"max_batch_count":   sh.Cfg.MaxBatchCount,
			"preview_max_width": sh.Cfg.PreviewMaxWidth,
		},
	})
}

// driftEntry reports one catalog record whose file is absent on disk.
type driftEntry struct {
	ID      string `json:"id"`
	Variant string `json:"variant"`
	Path    string `json:"path"`
}

// DriftReport reconciles the catalog against the filesystem: records whose
// files went missing out-of-band, and files on disk no record references.
// Read-only; the condition is detectable but not self-healing.
func (sh *SystemHandler) DriftReport(w http.ResponseWriter, r *http.Request) {
	records := sh.Catalog.List()

	referenced := make(map[string]bool, len(records)*2)
	missing := make([]driftEntry, 0)

	for _, rec := range records {
		for _, v := range []struct {
			variant media.AssetType
			relPath string
		}{
			{media.AssetTypeOriginal, rec.OriginalPath},
			{media.AssetTypePreview, rec.PreviewPath},
		} {
			referenced[path.Base(v.relPath)] = true
			fullPath, err := sh.Store.GetFullPath(v.relPath)
			if err != nil {
				missing = append(missing, driftEntry{ID: rec.ID, Variant: string(v.variant), Path: v.relPath})
				continue
			}
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				missing = append(missing, driftEntry{ID: rec.ID, Variant: string(v.variant), Path: v.relPath})
			}
		}
	}

	orphans := make([]string, 0)
	for _, assetType := range []media.AssetType{media.AssetTypeOriginal, media.AssetTypePreview} {
		dirPath, err := sh.Store.EnsureDir(assetType)
		if err != nil {
			log.Printf("drift: failed to resolve %s directory: %v", assetType, err)
			continue
		}
		entries, err := os.ReadDir(dirPath)
		if err != nil {
			log.Printf("drift: failed to scan %s: %v", dirPath, err)
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() || referenced[entry.Name()] {
				continue
			}
			orphans = append(orphans, entry.Name())
		}
	}
	natsort.Sort(orphans)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"checked_records": len(records),
		"missing":         missing,
		"orphans":         orphans,
	})
}
