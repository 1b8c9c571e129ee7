package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	DefaultOriginalsSubDir = "originals"
	DefaultPreviewsSubDir  = "previews"
)

const (
	defaultMaxFileSize        = 50 * 1024 * 1024 // 50 MiB
	defaultMaxBatchCount      = 10
	defaultPreviewMaxWidth    = 640
	defaultPreviewJpegQuality = 85
	defaultPreviewCacheSize   = 256
	defaultPreviewCacheTTL    = 5 * time.Minute
)

type Config struct {
	// storage configuration
	StorageRootPath string // primary root for all stored assets
	OriginalsPath   string // full-calculated path for relocated uploads
	PreviewsPath    string // full-calculated path for generated previews

	// catalog document path
	CatalogPath string

	// upload limits
	MaxFileSize   int64
	MaxBatchCount int

	// preview generation settings
	PreviewMaxWidth    int
	PreviewJpegQuality int

	// preview byte cache
	PreviewCacheSize int
	PreviewCacheTTL  time.Duration
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvInt64OrDefault(envVar string, defaultVal int64) int64 {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseInt(valStr, 10, 64)
	if err != nil || val <= 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func LoadConfig() (Config, error) {
	storageRoot := getEnvOrDefault("STORAGE_ROOT_PATH", filepath.Join(".", "image_storage"))
	absStorageRoot, err := filepath.Abs(storageRoot)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for storage root '%s': %w", storageRoot, err)
	}

	originalsSubDir := getEnvOrDefault("ORIGINALS_SUBDIR", DefaultOriginalsSubDir)
	absOriginalsPath := filepath.Join(absStorageRoot, originalsSubDir)

	previewsSubDir := getEnvOrDefault("PREVIEWS_SUBDIR", DefaultPreviewsSubDir)
	absPreviewsPath := filepath.Join(absStorageRoot, previewsSubDir)

	catalogPath := getEnvOrDefault("CATALOG_PATH", "catalog.json")
	absCatalogPath, err := filepath.Abs(catalogPath)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for catalog '%s': %w", catalogPath, err)
	}

	maxFileSize := getEnvInt64OrDefault("MAX_FILE_SIZE", defaultMaxFileSize)
	maxBatchCount := getEnvIntOrDefault("MAX_BATCH_COUNT", defaultMaxBatchCount)

	previewMaxWidth := getEnvIntOrDefault("PREVIEW_MAX_WIDTH", defaultPreviewMaxWidth)
	previewQuality := getEnvIntOrDefault("PREVIEW_JPEG_QUALITY", defaultPreviewJpegQuality)
	if previewQuality > 100 {
		log.Printf("Warning: PREVIEW_JPEG_QUALITY %d out of range, using default %d", previewQuality, defaultPreviewJpegQuality)
		previewQuality = defaultPreviewJpegQuality
	}

	cacheSize := getEnvIntOrDefault("PREVIEW_CACHE_SIZE", defaultPreviewCacheSize)
	cacheTTL := time.Duration(getEnvIntOrDefault("PREVIEW_CACHE_TTL_SECONDS", int(defaultPreviewCacheTTL.Seconds()))) * time.Second

	cfg := Config{
		StorageRootPath:    absStorageRoot,
		OriginalsPath:      absOriginalsPath,
		PreviewsPath:       absPreviewsPath,
		CatalogPath:        absCatalogPath,
		MaxFileSize:        maxFileSize,
		MaxBatchCount:      maxBatchCount,
		PreviewMaxWidth:    previewMaxWidth,
		PreviewJpegQuality: previewQuality,
		PreviewCacheSize:   cacheSize,
		PreviewCacheTTL:    cacheTTL,
	}

	return cfg, nil
}
