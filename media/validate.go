package media

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

// Validation error kinds. Each check maps to a distinct externally
// observable outcome, so callers branch on these rather than message text.
var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrFileTooLarge  = errors.New("payload too large")
	ErrTooManyFiles  = errors.New("too many files")
)

// allowedMimeTypes maps each accepted file extension to the content types
// allowed to declare it. Both the extension and the declared type must
// match for an upload to pass validation.
var allowedMimeTypes = map[string][]string{
	".png":  {"image/png"},
	".jpg":  {"image/jpeg", "image/jpg", "image/pjpeg"},
	".jpeg": {"image/jpeg", "image/jpg", "image/pjpeg"},
	".bmp":  {"image/bmp", "image/x-bmp", "image/x-ms-bmp"},
	".tif":  {"image/tiff", "image/tif"},
	".tiff": {"image/tiff", "image/tif"},
}

// mimeByCanonicalExt maps canonical extensions to the content type used for
// streaming the stored original back out.
var mimeByCanonicalExt = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
}

// Validator performs the pre-ingestion accept/reject decision. It never
// inspects decoded pixel data; corrupt-but-well-named uploads are caught
// later by the ingestion pipeline.
type Validator struct {
	MaxFileSize   int64
	MaxBatchCount int
}

// CheckBatch rejects a batch whose file count exceeds the configured ceiling.
func (v Validator) CheckBatch(count int) error {
	if count > v.MaxBatchCount {
		return fmt.Errorf("%w: %d files in batch, limit is %d", ErrTooManyFiles, count, v.MaxBatchCount)
	}
	return nil
}

// CheckFile rejects a single upload whose extension is not allow-listed,
// whose declared content type does not match the extension, or whose size
// exceeds the per-file ceiling.
func (v Validator) CheckFile(filename, declaredMimeType string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	allowed, ok := allowedMimeTypes[ext]
	if !ok {
		return fmt.Errorf("%w: extension '%s' is not supported", ErrInvalidFormat, ext)
	}

	declared := normalizeMimeType(declaredMimeType)
	match := false
	for _, m := range allowed {
		if declared == m {
			match = true
			break
		}
	}
	if !match {
		return fmt.Errorf("%w: content type '%s' does not match extension '%s'", ErrInvalidFormat, declaredMimeType, ext)
	}

	if size > v.MaxFileSize {
		return fmt.Errorf("%w: %d bytes, limit is %d", ErrFileTooLarge, size, v.MaxFileSize)
	}
	return nil
}

// normalizeMimeType lowercases and strips any parameters from a declared
// content type ("image/png; charset=binary" -> "image/png").
func normalizeMimeType(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

// CanonicalExtension maps a declared filename to the canonical extension
// used for on-disk addressing: recognized spellings collapse to one form
// (.jpeg -> .jpg, .tif -> .tiff). An unrecognized extension falls back to
// .jpg rather than failing; the Validator, not this helper, is the format
// gate, so a fallback here means an upload bypassed validation.
func CanonicalExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpeg":
		return ".jpg"
	case ".tif":
		return ".tiff"
	case ".png", ".jpg", ".bmp", ".tiff":
		return ext
	default:
		log.Printf("media: unrecognized extension '%s' on '%s' reached ingestion, defaulting to .jpg", ext, filename)
		return ".jpg"
	}
}

// MimeTypeForExtension returns the streaming content type for a canonical
// extension, defaulting to a generic binary type for anything unexpected.
func MimeTypeForExtension(ext string) string {
	if m, ok := mimeByCanonicalExt[strings.ToLower(ext)]; ok {
		return m
	}
	return "application/octet-stream"
}
