package ocr

import (
	"image"
)

// Binarize applies a mean adaptive threshold over a window x window
// neighbourhood: a pixel becomes black when it is darker than the local mean
// minus bias. Bounds are preserved.
func Binarize(page *image.Gray, window, bias int) *image.Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	b := page.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	// integral[y*w+x] is the sum of pixels in [0,x]x[0,y]
	integral := make([]int, w*h)
	for y := 0; y < h; y++ {
		row := 0
		for x := 0; x < w; x++ {
			row += int(page.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[y*w+x] = row
			if y > 0 {
				integral[y*w+x] += integral[(y-1)*w+x]
			}
		}
	}
	sum := func(x0, y0, x1, y1 int) int {
		s := integral[y1*w+x1]
		if x0 > 0 {
			s -= integral[y1*w+x0-1]
		}
		if y0 > 0 {
			s -= integral[(y0-1)*w+x1]
		}
		if x0 > 0 && y0 > 0 {
			s += integral[(y0-1)*w+x0-1]
		}
		return s
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(y-half, 0), min(y+half, h-1)
		for x := 0; x < w; x++ {
			x0, x1 := max(x-half, 0), min(x+half, w-1)
			mean := sum(x0, y0, x1, y1) / ((x1 - x0 + 1) * (y1 - y0 + 1))
			v := uint8(255)
			if int(page.GrayAt(b.Min.X+x, b.Min.Y+y).Y) < max(mean-bias, 0) {
				v = 0
			}
			out.Pix[y*out.Stride+x] = v
		}
	}
	return out
}
