package models

// ImageMetadata holds structural metadata derived from a stored image.
// FileSize is always measured from disk; the remaining fields come from the
// decoder and may be absent for formats that do not expose them.
type ImageMetadata struct {
	FileSize     int64   `json:"file_size"`
	Width        *int    `json:"width,omitempty"`         // Nullable
	Height       *int    `json:"height,omitempty"`        // Nullable
	Format       *string `json:"format,omitempty"`        // Nullable, decoder format name, e.g. "png"
	ColorSpace   *string `json:"color_space,omitempty"`   // Nullable, e.g. "rgb", "gray", "ycbcr"
	ChannelCount *int    `json:"channel_count,omitempty"` // Nullable
	BitDepth     *int    `json:"bit_depth,omitempty"`     // Nullable, bits per channel
	PixelDensity *int    `json:"pixel_density,omitempty"` // Nullable, DPI from EXIF when present
	HasAlpha     *bool   `json:"has_alpha,omitempty"`     // Nullable
}

// ImageRecord describes one successfully ingested upload. Records are
// immutable once committed; the only mutation is deletion.
type ImageRecord struct {
	ID               string        `json:"id"` // UUID assigned at ingestion time
	OriginalFilename string        `json:"original_filename"`
	StoredFilename   string        `json:"stored_filename"`
	PreviewFilename  string        `json:"preview_filename"`
	OriginalPath     string        `json:"original_path"` // relative to the storage root
	PreviewPath      string        `json:"preview_path"`  // relative to the storage root
	MimeType         string        `json:"mime_type"`
	PreviewMimeType  string        `json:"preview_mime_type"`
	CreatedAt        int64         `json:"created_at"` // Unix timestamp, assigned at commit time
	Metadata         ImageMetadata `json:"metadata"`
}

// Clone returns a deep copy of the metadata, duplicating all pointer fields.
func (m ImageMetadata) Clone() ImageMetadata {
	out := ImageMetadata{FileSize: m.FileSize}
	out.Width = cloneInt(m.Width)
	out.Height = cloneInt(m.Height)
	out.Format = cloneString(m.Format)
	out.ColorSpace = cloneString(m.ColorSpace)
	out.ChannelCount = cloneInt(m.ChannelCount)
	out.BitDepth = cloneInt(m.BitDepth)
	out.PixelDensity = cloneInt(m.PixelDensity)
	out.HasAlpha = cloneBool(m.HasAlpha)
	return out
}

// Clone returns a deep copy of the record so callers can never reach the
// catalog's internal state through shared pointers.
func (r ImageRecord) Clone() ImageRecord {
	out := r
	out.Metadata = r.Metadata.Clone()
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
