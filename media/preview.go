package media

import (
	"fmt"
	"io"
	"log"

	"github.com/disintegration/imaging"
)

const (
	PreviewFileExtension = ".jpg"
	PreviewMimeType      = "image/jpeg"
)

// PreviewGenerator produces a bounded-width, re-encoded JPEG copy of a
// stored original. It relies on a Store implementation for saving results.
type PreviewGenerator struct {
	store    Store
	maxWidth int
	quality  int
}

func NewPreviewGenerator(store Store, maxWidth, quality int) *PreviewGenerator {
	return &PreviewGenerator{store: store, maxWidth: maxWidth, quality: quality}
}

// Generate decodes the original at originalFullPath, downscales it to the
// configured width cap when wider (never upscaling), and saves the JPEG
// result under an id-derived filename. Returns the relative path of the
// saved preview.
func (g *PreviewGenerator) Generate(originalFullPath, id string) (string, error) {
	img, err := imaging.Open(originalFullPath)
	if err != nil {
		return "", fmt.Errorf("preview: failed to decode %s: %w", originalFullPath, err)
	}

	if img.Bounds().Dx() > g.maxWidth {
		img = imaging.Resize(img, g.maxWidth, 0, imaging.Lanczos)
	}

	reader, writer := io.Pipe()
	go func() {
		defer writer.Close()
		if err := imaging.Encode(writer, img, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
			log.Printf("preview: failed to encode preview for %s: %v", id, err)
			writer.CloseWithError(fmt.Errorf("preview encoding failed: %w", err))
		}
	}()

	targetFilename := id + PreviewFileExtension
	savedRelPath, err := g.store.Save(AssetTypePreview, targetFilename, reader)
	if err != nil {
		return "", fmt.Errorf("preview: failed to save via store: %w", err)
	}

	log.Printf("preview: generated %s for image %s", savedRelPath, id)
	return savedRelPath, nil
}
