package media

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store defines the interface for saving, retrieving, and deleting stored
// assets addressed by paths relative to a common storage root.
type Store interface {
	// Save writes data to an asset-type directory under the given filename
	// and returns the path relative to the storage root.
	Save(assetType AssetType, filename string, data io.Reader) (string, error)
	// Get opens an asset for reading. A missing file is reported with an
	// error wrapping os.ErrNotExist.
	Get(relativePath string) (io.ReadCloser, os.FileInfo, error)
	// Delete removes an asset. Deleting a file that is already gone is not
	// an error.
	Delete(relativePath string) error
	// GetFullPath resolves a relative asset path to an absolute filesystem
	// path, rejecting paths that escape the storage root.
	GetFullPath(relativePath string) (string, error)
	// EnsureDir makes sure the directory for an asset type exists.
	EnsureDir(assetType AssetType) (string, error)
}

// LocalStorage implements Store on the local filesystem. Each asset type
// maps to one subdirectory of the base path.
type LocalStorage struct {
	basePath  string
	subDirMap map[AssetType]string
}

// NewLocalStorage creates a local filesystem store rooted at basePath.
func NewLocalStorage(basePath string, subDirs map[AssetType]string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	for assetType, subDir := range subDirs {
		fullPath := filepath.Join(absBasePath, subDir)
		if !strings.HasPrefix(filepath.Clean(fullPath), absBasePath) {
			return nil, fmt.Errorf("invalid subdirectory configuration: '%s' for asset type '%s' resolves outside base path '%s'", subDir, assetType, absBasePath)
		}
	}

	log.Printf("media.store: initialized LocalStorage at %s", absBasePath)
	return &LocalStorage{basePath: absBasePath, subDirMap: subDirs}, nil
}

func (ls *LocalStorage) assetTypeDir(assetType AssetType) (string, error) {
	subDir, ok := ls.subDirMap[assetType]
	if !ok {
		return "", fmt.Errorf("asset type '%s' is not configured", assetType)
	}
	return filepath.Join(ls.basePath, subDir), nil
}

// EnsureDir creates the directory for the asset type if it doesn't exist.
func (ls *LocalStorage) EnsureDir(assetType AssetType) (string, error) {
	dirPath, err := ls.assetTypeDir(assetType)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return "", fmt.Errorf("failed to ensure directory '%s': %w", dirPath, err)
	}
	return dirPath, nil
}

// Save writes data to the asset type's directory under filename. The write
// goes through a partial-file cleanup path: if copying fails, the
// destination is removed rather than left truncated.
func (ls *LocalStorage) Save(assetType AssetType, filename string, data io.Reader) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid asset filename '%s'", filename)
	}

	targetDir, err := ls.EnsureDir(assetType)
	if err != nil {
		return "", err
	}

	fullSavePath := filepath.Join(targetDir, filename)
	outFile, err := os.Create(fullSavePath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file '%s': %w", fullSavePath, err)
	}

	if _, err := io.Copy(outFile, data); err != nil {
		outFile.Close()
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to write data to '%s': %w", fullSavePath, err)
	}
	if err := outFile.Close(); err != nil {
		os.Remove(fullSavePath)
		return "", fmt.Errorf("failed to finalize '%s': %w", fullSavePath, err)
	}

	relativePath, err := filepath.Rel(ls.basePath, fullSavePath)
	if err != nil {
		return "", fmt.Errorf("internal error calculating relative path for '%s': %w", fullSavePath, err)
	}

	return filepath.ToSlash(relativePath), nil
}

// Get opens an asset and returns its reader along with file info.
func (ls *LocalStorage) Get(relativePath string) (io.ReadCloser, os.FileInfo, error) {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return nil, nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("asset not found at '%s': %w", relativePath, err)
		}
		return nil, nil, fmt.Errorf("failed to open asset '%s': %w", relativePath, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to stat asset '%s': %w", relativePath, err)
	}

	return file, info, nil
}

// Delete removes an asset file, treating "already gone" as success.
func (ls *LocalStorage) Delete(relativePath string) error {
	fullPath, err := ls.GetFullPath(relativePath)
	if err != nil {
		return err
	}

	err = os.Remove(fullPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete asset '%s': %w", relativePath, err)
	}
	if err == nil {
		log.Printf("media.store: deleted asset %s", fullPath)
	}
	return nil
}

// GetFullPath calculates the absolute path and performs the traversal check.
func (ls *LocalStorage) GetFullPath(relativePath string) (string, error) {
	cleanRelativePath := filepath.Clean(filepath.FromSlash(relativePath))

	fullPath := filepath.Join(ls.basePath, cleanRelativePath)
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", relativePath, err)
	}

	if !strings.HasPrefix(absFullPath, ls.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path: access denied for '%s'", relativePath)
	}

	return absFullPath, nil
}

// IsNotExist reports whether an asset access error means the file is absent
// on disk, as opposed to an I/O or path failure.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
