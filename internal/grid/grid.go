// Package grid implements filtering over periodic (wrapped) grids.
//
// The weather and terrain generators both start from sparse random spikes
// and smooth them into continuous fields; the smoothing here is a
// separable gaussian convolution that wraps around every axis.
package grid

import "math"

// GaussianKernel builds a normalized 1D gaussian kernel truncated at four
// standard deviations, mirroring the usual scientific-filter default.
func GaussianKernel(sigma float64) []float64 {
	if sigma <= 0 {
		return []float64{1}
	}
	radius := int(math.Ceil(4 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// convolveAxisWrap convolves data along one axis of a 3D grid with wrap
// boundary handling. The grid is laid out as data[t*ny*nx + y*nx + x].
func convolveAxisWrap(data []float64, nt, ny, nx, axis int, kernel []float64) []float64 {
	out := make([]float64, len(data))
	radius := len(kernel) / 2
	dims := [3]int{nt, ny, nx}
	strides := [3]int{ny * nx, nx, 1}
	n := dims[axis]
	stride := strides[axis]

	for t := 0; t < nt; t++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				idx := [3]int{t, y, x}
				base := t*ny*nx + y*nx + x
				pos := idx[axis]
				acc := 0.0
				for k := -radius; k <= radius; k++ {
					p := pos + k
					p %= n
					if p < 0 {
						p += n
					}
					acc += kernel[k+radius] * data[base+(p-pos)*stride]
				}
				out[base] = acc
			}
		}
	}
	return out
}

// SmoothWrap3 applies a wrapped gaussian filter to a 3D grid of shape
// (nt, ny, nx) and returns the smoothed copy.
func SmoothWrap3(data []float64, nt, ny, nx int, sigma float64) []float64 {
	kernel := GaussianKernel(sigma)
	out := convolveAxisWrap(data, nt, ny, nx, 0, kernel)
	out = convolveAxisWrap(out, nt, ny, nx, 1, kernel)
	return convolveAxisWrap(out, nt, ny, nx, 2, kernel)
}

// SmoothWrap2 applies a wrapped gaussian filter to a 2D grid of shape
// (ny, nx) and returns the smoothed copy.
func SmoothWrap2(data []float64, ny, nx int, sigma float64) []float64 {
	kernel := GaussianKernel(sigma)
	out := convolveAxisWrap(data, 1, ny, nx, 1, kernel)
	return convolveAxisWrap(out, 1, ny, nx, 2, kernel)
}

// Max returns the maximum value of the grid, or zero for an empty grid.
func Max(data []float64) float64 {
	max := 0.0
	for i, v := range data {
		if i == 0 || v > max {
			max = v
		}
	}
	return max
}

// GradientMagSum3 sums the central-difference gradients of a 3D grid along
// all three axes and returns the element-wise absolute value. The weather
// generator uses it to slow the wind where the angle field changes fast.
func GradientMagSum3(data []float64, nt, ny, nx int) []float64 {
	out := make([]float64, len(data))
	axisGradient := func(dims [3]int, axis, stride int) {
		n := dims[axis]
		if n < 2 {
			return
		}
		for t := 0; t < nt; t++ {
			for y := 0; y < ny; y++ {
				for x := 0; x < nx; x++ {
					idx := [3]int{t, y, x}
					base := t*ny*nx + y*nx + x
					pos := idx[axis]
					var g float64
					switch {
					case pos == 0:
						g = data[base+stride] - data[base]
					case pos == n-1:
						g = data[base] - data[base-stride]
					default:
						g = (data[base+stride] - data[base-stride]) / 2
					}
					out[base] += g
				}
			}
		}
	}
	dims := [3]int{nt, ny, nx}
	axisGradient(dims, 0, ny*nx)
	axisGradient(dims, 1, nx)
	axisGradient(dims, 2, 1)
	for i, v := range out {
		out[i] = math.Abs(v)
	}
	return out
}
