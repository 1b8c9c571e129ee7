package media

import (
	"errors"
	"testing"
)

func TestCheckFile(t *testing.T) {
	v := Validator{MaxFileSize: 1024, MaxBatchCount: 3}

	tests := []struct {
		name     string
		filename string
		mimeType string
		size     int64
		wantErr  error
	}{
		{"png ok", "photo.png", "image/png", 100, nil},
		{"jpeg ok", "photo.jpeg", "image/jpeg", 100, nil},
		{"jpg alias mime ok", "photo.jpg", "image/jpg", 100, nil},
		{"tiff ok", "scan.tif", "image/tiff", 100, nil},
		{"bmp legacy mime ok", "pic.bmp", "image/x-ms-bmp", 100, nil},
		{"uppercase extension ok", "PHOTO.PNG", "image/png", 100, nil},
		{"mime with parameters ok", "photo.png", "image/png; charset=binary", 100, nil},
		{"unlisted extension", "notes.txt", "text/plain", 100, ErrInvalidFormat},
		{"gif not allowed", "anim.gif", "image/gif", 100, ErrInvalidFormat},
		{"no extension", "photo", "image/png", 100, ErrInvalidFormat},
		{"mime mismatch", "x.png", "text/plain", 100, ErrInvalidFormat},
		{"mime from other format", "x.png", "image/jpeg", 100, ErrInvalidFormat},
		{"oversized", "big.png", "image/png", 2048, ErrFileTooLarge},
		{"at the limit ok", "edge.png", "image/png", 1024, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckFile(tt.filename, tt.mimeType, tt.size)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckFile() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CheckFile() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckFileDistinguishesErrorKinds(t *testing.T) {
	v := Validator{MaxFileSize: 10, MaxBatchCount: 1}

	// an oversized file with a bad extension must surface the format error,
	// matching the check order clients observe
	err := v.CheckFile("x.exe", "application/octet-stream", 100)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("error = %v, want ErrInvalidFormat", err)
	}
	if errors.Is(err, ErrFileTooLarge) {
		t.Error("format error must not also match ErrFileTooLarge")
	}
}

func TestCheckBatch(t *testing.T) {
	v := Validator{MaxFileSize: 1024, MaxBatchCount: 3}

	if err := v.CheckBatch(3); err != nil {
		t.Errorf("CheckBatch(3) error = %v, want nil", err)
	}
	if err := v.CheckBatch(4); !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("CheckBatch(4) error = %v, want ErrTooManyFiles", err)
	}
}

func TestCanonicalExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.png", ".png"},
		{"a.PNG", ".png"},
		{"a.jpg", ".jpg"},
		{"a.jpeg", ".jpg"},
		{"a.JPEG", ".jpg"},
		{"a.tif", ".tiff"},
		{"a.tiff", ".tiff"},
		{"a.bmp", ".bmp"},
		{"a.webp", ".jpg"}, // unrecognized falls back rather than failing
		{"noext", ".jpg"},
	}

	for _, tt := range tests {
		if got := CanonicalExtension(tt.filename); got != tt.want {
			t.Errorf("CanonicalExtension(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestMimeTypeForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".png", "image/png"},
		{".jpg", "image/jpeg"},
		{".tiff", "image/tiff"},
		{".bmp", "image/bmp"},
		{".weird", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := MimeTypeForExtension(tt.ext); got != tt.want {
			t.Errorf("MimeTypeForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}
