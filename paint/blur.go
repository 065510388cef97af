package paint

import "math"

// boxSizesForGauss returns n box widths whose successive application
// approximates a Gaussian of the given standard deviation.
func boxSizesForGauss(sigma float64, n int) []int {
	wIdeal := math.Sqrt(12*sigma*sigma/float64(n) + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	wu := wl + 2
	mIdeal := (12*sigma*sigma - float64(n*wl*wl) - float64(4*n*wl) - float64(3*n)) / float64(-4*wl-4)
	m := int(math.Round(mIdeal))

	sizes := make([]int, n)
	for i := range sizes {
		if i < m {
			sizes[i] = wl
		} else {
			sizes[i] = wu
		}
	}
	return sizes
}

// gaussianBlur blurs an interleaved float buffer of w*h pixels with ch
// channels in place. Three box passes per axis approximate the Gaussian in
// O(w*h) regardless of radius; edges are clamped.
func gaussianBlur(buf []float32, w, h, ch int, sigma float64) {
	if sigma <= 0 || w <= 0 || h <= 0 {
		return
	}
	tmp := make([]float32, len(buf))
	for _, size := range boxSizesForGauss(sigma, 3) {
		r := (size - 1) / 2
		if r <= 0 {
			continue
		}
		boxBlurH(buf, tmp, w, h, ch, r)
		boxBlurV(tmp, buf, w, h, ch, r)
	}
}

// boxBlurH applies a horizontal running-sum box filter from src into dst.
func boxBlurH(src, dst []float32, w, h, ch, r int) {
	inv := 1 / float32(2*r+1)
	sum := make([]float32, ch)
	for y := 0; y < h; y++ {
		row := y * w * ch
		for c := 0; c < ch; c++ {
			sum[c] = 0
		}
		for k := -r; k <= r; k++ {
			x := clampIndex(k, w)
			for c := 0; c < ch; c++ {
				sum[c] += src[row+x*ch+c]
			}
		}
		for x := 0; x < w; x++ {
			for c := 0; c < ch; c++ {
				dst[row+x*ch+c] = sum[c] * inv
			}
			out := clampIndex(x-r, w)
			in := clampIndex(x+r+1, w)
			for c := 0; c < ch; c++ {
				sum[c] += src[row+in*ch+c] - src[row+out*ch+c]
			}
		}
	}
}

// boxBlurV applies a vertical running-sum box filter from src into dst.
func boxBlurV(src, dst []float32, w, h, ch, r int) {
	inv := 1 / float32(2*r+1)
	sum := make([]float32, ch)
	stride := w * ch
	for x := 0; x < w; x++ {
		col := x * ch
		for c := 0; c < ch; c++ {
			sum[c] = 0
		}
		for k := -r; k <= r; k++ {
			y := clampIndex(k, h)
			for c := 0; c < ch; c++ {
				sum[c] += src[y*stride+col+c]
			}
		}
		for y := 0; y < h; y++ {
			for c := 0; c < ch; c++ {
				dst[y*stride+col+c] = sum[c] * inv
			}
			out := clampIndex(y-r, h)
			in := clampIndex(y+r+1, h)
			for c := 0; c < ch; c++ {
				sum[c] += src[in*stride+col+c] - src[out*stride+col+c]
			}
		}
	}
}

// clampIndex clamps i to [0, n).
func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// clampByte clamps a float32 to [0, 255] and converts to uint8.
func clampByte(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5) // Round to nearest
}
