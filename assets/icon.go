// Package assets holds the embedded window icon.
package assets

import (
	_ "embed"
	"fmt"
	"image"
	"strings"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed svte_icon.svg
var iconSVG string

// IconSizes are the sizes offered to the window manager.
var IconSizes = []int{16, 32, 48, 64, 128, 256}

// Icons renders the embedded SVG icon at every size in IconSizes,
// suitable for GLFW SetIcon.
func Icons() ([]image.Image, error) {
	icons := make([]image.Image, 0, len(IconSizes))
	for _, size := range IconSizes {
		img, err := RenderIcon(size)
		if err != nil {
			return nil, err
		}
		icons = append(icons, img)
	}
	return icons, nil
}

// RenderIcon renders the embedded SVG icon as a size x size image.
func RenderIcon(size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("assets: invalid icon size %d", size)
	}
	icon, err := oksvg.ReadIconStream(strings.NewReader(iconSVG))
	if err != nil {
		return nil, fmt.Errorf("assets: parse icon: %w", err)
	}

	icon.SetTarget(0, 0, float64(size), float64(size))

	rgba := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, rgba, rgba.Bounds())
	rasterizer := rasterx.NewDasher(size, size, scanner)
	icon.Draw(rasterizer, 1.0)

	return rgba, nil
}
