package filestorage

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/disintegration/imaging"
	"github.com/yigit/classroom/internal/pkg/apperrors"
)

const (
	// MaxUploadSize is the largest accepted image upload.
	MaxUploadSize = 5 << 20
	// MaxImageDimension bounds the stored width and height in pixels.
	MaxImageDimension = 1024
	jpegQuality       = 85
)

// OpenUpload opens a multipart upload after checking its declared size.
func OpenUpload(fileHeader *multipart.FileHeader) (multipart.File, error) {
	if fileHeader == nil {
		return nil, apperrors.NewValidationError(apperrors.FieldError{Field: "file", Message: "must not be empty"})
	}
	if fileHeader.Size > MaxUploadSize {
		return nil, apperrors.NewValidationError(apperrors.FieldError{
			Field:   "file",
			Message: fmt.Sprintf("must be at most %d bytes", MaxUploadSize),
		})
	}
	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	return f, nil
}

// NormalizeImage decodes any supported image, applies EXIF orientation,
// shrinks it to fit MaxImageDimension and re-encodes it as JPEG.
// Input that is not an image yields apperrors.ErrInvalidImage.
func NormalizeImage(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(io.LimitReader(r, MaxUploadSize+1), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidImage, err)
	}

	b := img.Bounds()
	if b.Dx() > MaxImageDimension || b.Dy() > MaxImageDimension {
		img = imaging.Fit(img, MaxImageDimension, MaxImageDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
