package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kailas-cloud/usdsearch/internal/domain"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	dir := t.TempDir()
	c, err := NewCodec(filepath.Join(dir, "captures"), filepath.Join(dir, "assets"), nil)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

// pngBase64 renders a solid image of the given size as base64-encoded PNG.
func pngBase64(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodeJPEGFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestDecodeToFile(t *testing.T) {
	c := newTestCodec(t)

	path, err := c.DecodeToFile(pngBase64(t, 4, 4, color.RGBA{R: 255, A: 255}))
	if err != nil {
		t.Fatalf("DecodeToFile: %v", err)
	}
	if !strings.HasSuffix(path, ".jpg") {
		t.Errorf("path = %q, want .jpg suffix", path)
	}
	if filepath.Dir(path) != c.ScratchDir() {
		t.Errorf("path %q not inside scratch dir %q", path, c.ScratchDir())
	}
	img := decodeJPEGFile(t, path)
	if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 4 {
		t.Errorf("decoded size = %v, want 4x4", img.Bounds())
	}
}

func TestDecodeToFile_UniqueNames(t *testing.T) {
	c := newTestCodec(t)
	payload := pngBase64(t, 2, 2, color.White)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		path, err := c.DecodeToFile(payload)
		if err != nil {
			t.Fatalf("DecodeToFile: %v", err)
		}
		if seen[path] {
			t.Fatalf("duplicate path %q", path)
		}
		seen[path] = true
	}
}

func TestDecodeToFile_BadBase64(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.DecodeToFile("not!!base64"); !errors.Is(err, domain.ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestDecodeToFile_NotAnImage(t *testing.T) {
	c := newTestCodec(t)
	payload := base64.StdEncoding.EncodeToString([]byte("plain text"))
	if _, err := c.DecodeToFile(payload); !errors.Is(err, domain.ErrImageDecode) {
		t.Fatalf("err = %v, want ErrImageDecode", err)
	}
}

func TestResizeToLimit_Landscape(t *testing.T) {
	c := newTestCodec(t)

	src, err := c.DecodeToFile(pngBase64(t, 2000, 1000, color.Black))
	if err != nil {
		t.Fatalf("DecodeToFile: %v", err)
	}
	out, err := c.ResizeToLimit(src)
	if err != nil {
		t.Fatalf("ResizeToLimit: %v", err)
	}

	img := decodeJPEGFile(t, out)
	if img.Bounds().Dx() != 1000 || img.Bounds().Dy() != 500 {
		t.Errorf("resized = %dx%d, want 1000x500", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestResizeToLimit_Portrait(t *testing.T) {
	c := newTestCodec(t)

	src, err := c.DecodeToFile(pngBase64(t, 500, 2000, color.Black))
	if err != nil {
		t.Fatalf("DecodeToFile: %v", err)
	}
	out, err := c.ResizeToLimit(src)
	if err != nil {
		t.Fatalf("ResizeToLimit: %v", err)
	}

	img := decodeJPEGFile(t, out)
	if img.Bounds().Dx() != 250 || img.Bounds().Dy() != 1000 {
		t.Errorf("resized = %dx%d, want 250x1000", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestDecodeToFile_FlattensAlphaOntoWhite(t *testing.T) {
	c := newTestCodec(t)

	// Fully transparent source pixels must come out white, not black.
	path, err := c.DecodeToFile(pngBase64(t, 8, 8, color.RGBA{}))
	if err != nil {
		t.Fatalf("DecodeToFile: %v", err)
	}
	img := decodeJPEGFile(t, path)
	r, g, b, _ := img.At(4, 4).RGBA()
	if r < 0xf000 || g < 0xf000 || b < 0xf000 {
		t.Errorf("flattened pixel = (%d,%d,%d), want near-white", r, g, b)
	}
}

func TestEncodeToString_RoundTrip(t *testing.T) {
	c := newTestCodec(t)

	path, err := c.DecodeToFile(pngBase64(t, 4, 4, color.White))
	if err != nil {
		t.Fatalf("DecodeToFile: %v", err)
	}
	s, err := c.EncodeToString(path)
	if err != nil {
		t.Fatalf("EncodeToString: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	onDisk, _ := os.ReadFile(path)
	if !bytes.Equal(raw, onDisk) {
		t.Error("encoded string does not match file contents")
	}
}

func TestClearScratchDir(t *testing.T) {
	c := newTestCodec(t)

	if _, err := c.DecodeToFile(pngBase64(t, 2, 2, color.White)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.DecodeToFile(pngBase64(t, 2, 2, color.White)); err != nil {
		t.Fatal(err)
	}
	// Subdirectories are left alone.
	sub := filepath.Join(c.ScratchDir(), "keep")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	c.ClearScratchDir()

	entries, err := os.ReadDir(c.ScratchDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "keep" {
		t.Errorf("scratch dir entries after clear: %v", entries)
	}
}

func TestClearScratchDir_MissingDirDoesNotPanic(t *testing.T) {
	c := newTestCodec(t)
	if err := os.RemoveAll(c.ScratchDir()); err != nil {
		t.Fatal(err)
	}
	c.ClearScratchDir()
}
