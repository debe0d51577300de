package ports

// ImageProcessor probes and imports image files
type ImageProcessor interface {
	// Dimensions returns the pixel size without decoding the full image when possible
	Dimensions(path string) (width, height int, err error)

	// Import copies src into dstDir, converting it to format when the source
	// is not a format trainers accept. It returns the destination path.
	Import(src, dstDir, format string) (string, error)

	// IsImage reports whether path looks like an importable image
	IsImage(path string) bool
}
