// Package imagefile probes and imports image files for a project
package imagefile

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"yololabel/internal/domain"
)

// Extensions recognized as images when importing a directory
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
	".gif": true, ".tif": true, ".tiff": true, ".webp": true,
}

// Formats copied as-is; everything else is converted on import
var passthroughExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".bmp": true,
}

// Processor implements ports.ImageProcessor
type Processor struct {
	// WebPQuality is used for lossy webp output; 0 means lossless
	WebPQuality float32
}

// NewProcessor creates a processor with lossless webp output
func NewProcessor() *Processor {
	return &Processor{}
}

// IsImageFile reports whether path has a recognized image extension
func IsImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsImage implements ports.ImageProcessor
func (p *Processor) IsImage(path string) bool {
	return IsImageFile(path)
}

// Dimensions reads the image header, decoding the whole file only when
// the header cannot be parsed
func (p *Processor) Dimensions(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, &domain.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	if cfg, _, err := image.DecodeConfig(f); err == nil {
		return cfg.Width, cfg.Height, nil
	}

	img, err := imaging.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, path, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}

// Import places src under dstDir. Accepted formats are copied byte for
// byte; others are decoded and written as format (png, jpg or webp).
func (p *Processor) Import(src, dstDir, format string) (string, error) {
	if !IsImageFile(src) {
		return "", &domain.ValidationError{Field: "image", Message: fmt.Sprintf("%s is not a supported image", filepath.Base(src))}
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return "", &domain.IOError{Op: "create", Path: dstDir, Err: err}
	}

	ext := strings.ToLower(filepath.Ext(src))
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))

	if passthroughExtensions[ext] {
		dst := filepath.Join(dstDir, filepath.Base(src))
		if sameFile(src, dst) {
			return dst, nil
		}
		if err := copyFile(src, dst); err != nil {
			return "", &domain.IOError{Op: "copy", Path: src, Err: err}
		}
		return dst, nil
	}

	format = normalizeFormat(format)
	dst := filepath.Join(dstDir, stem+"."+format)
	img, err := imaging.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrCorrupt, src, err)
	}
	if err := p.save(img, dst, format); err != nil {
		return "", &domain.IOError{Op: "convert", Path: dst, Err: err}
	}
	return dst, nil
}

func (p *Processor) save(img image.Image, dst, format string) error {
	if format != "webp" {
		return imaging.Save(img, dst, imaging.JPEGQuality(95))
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	opts := &webp.Options{Lossless: p.WebPQuality == 0, Quality: p.WebPQuality}
	if err := webp.Encode(f, img, opts); err != nil {
		f.Close()
		os.Remove(dst)
		return err
	}
	return f.Close()
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "jpg", "jpeg":
		return "jpg"
	case "webp":
		return "webp"
	default:
		return "png"
	}
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
