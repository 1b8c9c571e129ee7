package media

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/pixelflow/imagestorebackend/models"
)

// ExtractMetadata derives structural metadata from a stored image file. It
// fails for unreadable or corrupt input; callers treat that as a processing
// failure, not a validation one. FileSize is left to the caller to measure.
func ExtractMetadata(filePath string) (models.ImageMetadata, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return models.ImageMetadata{}, fmt.Errorf("metadata: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return models.ImageMetadata{}, fmt.Errorf("metadata: failed to decode %s: %w", filePath, err)
	}

	meta := models.ImageMetadata{}
	w, h := cfg.Width, cfg.Height
	meta.Width = &w
	meta.Height = &h
	f := format
	meta.Format = &f

	if space, channels, depth, alpha, ok := describeColorModel(cfg.ColorModel); ok {
		meta.ColorSpace = &space
		meta.ChannelCount = &channels
		meta.BitDepth = &depth
		meta.HasAlpha = &alpha
	}

	if _, err := file.Seek(0, 0); err != nil {
		return models.ImageMetadata{}, fmt.Errorf("metadata: failed to seek file %s: %w", filePath, err)
	}

	if density := extractPixelDensity(file); density != nil {
		meta.PixelDensity = density
	}

	return meta, nil
}

// describeColorModel maps a decoded color model to color space, channel
// count, bit depth per channel, and alpha presence. Unrecognized models
// return ok=false and the fields stay absent.
func describeColorModel(m color.Model) (space string, channels, depth int, alpha bool, ok bool) {
	switch m {
	case color.GrayModel:
		return "gray", 1, 8, false, true
	case color.Gray16Model:
		return "gray", 1, 16, false, true
	case color.RGBAModel, color.NRGBAModel:
		return "rgb", 4, 8, true, true
	case color.RGBA64Model, color.NRGBA64Model:
		return "rgb", 4, 16, true, true
	case color.YCbCrModel:
		return "ycbcr", 3, 8, false, true
	case color.CMYKModel:
		return "cmyk", 4, 8, false, true
	}
	if _, isPalette := m.(color.Palette); isPalette {
		return "paletted", 1, 8, false, true
	}
	return "", 0, 0, false, false
}

// extractPixelDensity pulls the horizontal resolution from EXIF data when
// the file carries any. Most PNG/BMP uploads won't, which is fine; the
// field is optional.
func extractPixelDensity(file *os.File) *int {
	exifData, err := exif.Decode(file)
	if err != nil {
		return nil
	}

	tag, err := exifData.Get(exif.XResolution)
	if err != nil || tag == nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		valInt, errInt := tag.Int(0)
		if errInt != nil {
			return nil
		}
		return &valInt
	}
	density := int(num / den)
	if density <= 0 {
		return nil
	}
	log.Printf("metadata: pixel density %d dpi for %s", density, file.Name())
	return &density
}
