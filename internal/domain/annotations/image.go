package annotations

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"strings"

	// Sólo para nombrar el formato rechazado en el error.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageScale es fijo: quien necesite otro tamaño debe redimensionar antes de subir.
const ImageScale = 0.5

// MaxImagePixels acota el bitmap que el motor PDF descomprime en memoria.
const MaxImagePixels = 4096 * 4096

var (
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrInvalidImageData       = errors.New("invalid image data")
)

type Format string

const (
	FormatPNG  Format = "PNG"
	FormatJPEG Format = "JPG"
)

// Image es el payload ya decodificado de un data URI.
type Image struct {
	Format Format
	MIME   string
	Data   []byte
	Width  int // px
	Height int // px
}

// Scaled devuelve el tamaño en puntos tras aplicar scale (72 dpi).
func (img Image) Scaled(scale float64) (float64, float64) {
	return float64(img.Width) * scale, float64(img.Height) * scale
}

// DecodeDataURI parsea "data:<mime>;base64,<payload>".
// image/png => PNG; cualquier otro MIME => se intenta JPEG.
func DecodeDataURI(uri string) (Image, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(uri), ",")
	if !ok {
		return Image{}, fmt.Errorf("%w: missing data uri separator", ErrInvalidImageData)
	}
	header = strings.ToLower(strings.TrimSpace(header))
	if !strings.HasPrefix(header, "data:") {
		return Image{}, fmt.Errorf("%w: not a data uri", ErrInvalidImageData)
	}

	mime, params, _ := strings.Cut(strings.TrimPrefix(header, "data:"), ";")
	if !strings.Contains(params, "base64") {
		return Image{}, fmt.Errorf("%w: payload is not base64", ErrInvalidImageData)
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidImageData, err)
	}

	if mime == "image/png" {
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return Image{}, fmt.Errorf("%w: png: %v", ErrInvalidImageData, err)
		}
		if err := checkDimensions(cfg); err != nil {
			return Image{}, err
		}
		return Image{Format: FormatPNG, MIME: mime, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if _, name, derr := image.DecodeConfig(bytes.NewReader(data)); derr == nil {
			return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, name)
		}
		if mime == "" {
			mime = "unknown"
		}
		return Image{}, fmt.Errorf("%w: %s", ErrUnsupportedImageFormat, mime)
	}
	if err := checkDimensions(cfg); err != nil {
		return Image{}, err
	}
	return Image{Format: FormatJPEG, MIME: mime, Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}

func checkDimensions(cfg image.Config) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidImageData)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return fmt.Errorf("%w: image too large (%dx%d)", ErrInvalidImageData, cfg.Width, cfg.Height)
	}
	return nil
}
