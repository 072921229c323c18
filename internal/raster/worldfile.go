package raster

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"georef/pkg/geometry"
)

// WorldFilePath returns the world file that sits next to image: the
// extension keeps its first and last letter and gains a "w", so scan.tif
// pairs with scan.tfw.
func WorldFilePath(image string) string {
	ext := filepath.Ext(image)
	base := strings.TrimSuffix(image, ext)
	ext = strings.TrimPrefix(ext, ".")
	if len(ext) < 2 {
		return base + "." + ext + "w"
	}
	return base + "." + ext[:1] + ext[len(ext)-1:] + "w"
}

// WriteWorldFile writes the six-line world file for an image whose pixel
// coordinates map to target coordinates through t. The last two lines name
// the centre of the top-left pixel.
func WriteWorldFile(path string, t geometry.AffineTransform) error {
	origin := t.Apply(geometry.Point2D{X: 0.5, Y: 0.5})
	body := fmt.Sprintf("%.10f\n%.10f\n%.10f\n%.10f\n%.10f\n%.10f\n",
		t.A, t.C, t.B, t.D, origin.X, origin.Y)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing world file: %w", err)
	}
	return nil
}
