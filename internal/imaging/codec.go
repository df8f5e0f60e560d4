// Package imaging decodes, resizes, and persists thumbnail payloads.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"

	"github.com/kailas-cloud/usdsearch/internal/domain"
	"github.com/kailas-cloud/usdsearch/internal/metrics"

	// Thumbnail payloads arrive as PNG, JPEG, or WebP.
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// MaxDimension is the pixel limit on the longer image side accepted by the
// inference endpoint.
const MaxDimension = 1000

// Quality 85 keeps a 1000px JPEG under the 200 kB payload limit.
const jpegQuality = 85

// Codec manages the scratch directory and image conversions.
type Codec struct {
	scratchDir string
	assetDir   string
	logger     *zap.Logger
}

// NewCodec creates a codec rooted at the given directories, creating them if needed.
func NewCodec(scratchDir, assetDir string, logger *zap.Logger) (*Codec, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, dir := range []string{scratchDir, assetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return &Codec{scratchDir: scratchDir, assetDir: assetDir, logger: logger}, nil
}

// ScratchDir returns the directory holding decoded thumbnails.
func (c *Codec) ScratchDir() string { return c.scratchDir }

// AssetDir returns the directory for downloaded assets.
func (c *Codec) AssetDir() string { return c.assetDir }

// DecodeToFile decodes a base64 thumbnail payload and persists it as a JPEG
// under a random name in the scratch directory. Returns the file path.
func (c *Codec) DecodeToFile(b64 string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		metrics.ImageDecodesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: invalid base64: %w", domain.ErrImageDecode, err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		metrics.ImageDecodesTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}

	path := filepath.Join(c.scratchDir, randomName())
	if err := writeJPEG(path, flattenAlpha(img)); err != nil {
		metrics.ImageDecodesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.ImageDecodesTotal.WithLabelValues("ok").Inc()
	return path, nil
}

// ResizeToLimit rescales the image so its longer side is exactly MaxDimension,
// preserving aspect ratio, and writes the result as a JPEG in the scratch
// directory. Transparency is flattened onto a white background.
func (c *Codec) ResizeToLimit(srcPath string) (string, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open image %s: %w", srcPath, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrImageDecode, err)
	}

	flat := flattenAlpha(img)
	bounds := flat.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var tw, th int
	if w > h {
		tw, th = MaxDimension, h*MaxDimension/w
	} else {
		tw, th = w*MaxDimension/h, MaxDimension
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), flat, bounds, xdraw.Over, nil)

	path := filepath.Join(c.scratchDir, randomName())
	if err := writeJPEG(path, dst); err != nil {
		return "", err
	}
	return path, nil
}

// EncodeToString reads an image file and returns its base64 encoding,
// the payload form the search API expects for image queries.
func (c *Codec) EncodeToString(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// ClearScratchDir deletes all regular files directly inside the scratch
// directory. Filesystem errors are logged and swallowed; thumbnails from a
// previous run are not worth failing startup over.
func (c *Codec) ClearScratchDir() {
	entries, err := os.ReadDir(c.scratchDir)
	if err != nil {
		c.logger.Warn("failed to list scratch directory", zap.String("dir", c.scratchDir), zap.Error(err))
		return
	}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(c.scratchDir, e.Name())
		if err := os.Remove(path); err != nil {
			c.logger.Warn("failed to remove scratch file", zap.String("path", path), zap.Error(err))
		}
	}
}

// randomName returns a short random JPEG file name. Random rather than
// time-based so concurrent decodes in the same millisecond cannot collide.
func randomName() string {
	return uuid.NewString()[:8] + ".jpg"
}

// flattenAlpha draws the image over a white background, dropping any alpha
// channel before JPEG encoding.
func flattenAlpha(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
	return dst
}

func writeJPEG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file %s: %w", path, err)
	}
	defer out.Close()

	if err := jpeg.Encode(out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg %s: %w", path, err)
	}
	return nil
}
