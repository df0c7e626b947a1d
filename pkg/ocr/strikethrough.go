package ocr

import (
	"image"

	"github.com/disintegration/imaging"

	"planner/pkg/textline"
)

// Strikethrough tuning. The band is centred at 82% of the box height.
const (
	BandHeightRatio = 0.08
	BandCenterRatio = 0.82
	DarkThreshold   = 85
	MinDarkRatio    = 0.45
	MinAspectRatio  = 6
)

// IsStruck reports whether the region of img inside box is crossed out by a
// long, thin, dark horizontal stroke.
func IsStruck(img *image.Gray, box textline.BBox) bool {
	width, height := box.Width(), box.Height()
	if img == nil || width <= 0 || height <= 0 {
		return false
	}
	bandHeight := max(1, int(float64(height)*BandHeightRatio))
	centerY := box.Y1 + int(float64(height)*BandCenterRatio)
	top := max(box.Y1, centerY-bandHeight/2)
	bottom := min(box.Y2, centerY+bandHeight/2)
	if bottom <= top {
		return false
	}

	band := imaging.Crop(img, image.Rect(box.X1, top, box.X2, bottom))
	total := band.Bounds().Dx() * band.Bounds().Dy()
	if total == 0 {
		return false
	}
	dark := 0
	// Crop output is NRGBA of a gray source, so R carries the luminance.
	for i := 0; i < len(band.Pix); i += 4 {
		if band.Pix[i] < DarkThreshold {
			dark++
		}
	}
	darkRatio := float64(dark) / float64(total)
	aspect := float64(width) / float64(max(1, bandHeight))
	return darkRatio > MinDarkRatio && aspect > MinAspectRatio
}

// NormalizedToPixels maps normalized [0,1] vertices onto a w x h raster.
// Coordinates are clamped first. No vertices yields the full page.
func NormalizedToPixels(verts []NormalizedVertex, w, h int) textline.BBox {
	if len(verts) == 0 {
		return textline.BBox{X2: w, Y2: h}
	}
	pts := make([]image.Point, 0, len(verts))
	for _, v := range verts {
		pts = append(pts, image.Point{
			X: int(clamp01(v.X) * float64(w)),
			Y: int(clamp01(v.Y) * float64(h)),
		})
	}
	return textline.BoxFromPoints(pts)
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
