package grid

import (
	"math"
	"testing"
)

// TestGaussianKernelIsNormalized ensures kernel weights sum to one.
func TestGaussianKernelIsNormalized(t *testing.T) {
	for _, sigma := range []float64{0.5, 1, 8} {
		kernel := GaussianKernel(sigma)
		sum := 0.0
		for _, v := range kernel {
			sum += v
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("kernel for sigma %f sums to %f", sigma, sum)
		}
		if len(kernel)%2 != 1 {
			t.Fatalf("kernel for sigma %f has even length %d", sigma, len(kernel))
		}
	}
}

// TestGaussianKernelDegenerateSigma ensures non-positive sigma is an identity.
func TestGaussianKernelDegenerateSigma(t *testing.T) {
	kernel := GaussianKernel(0)
	if len(kernel) != 1 || kernel[0] != 1 {
		t.Fatalf("expected identity kernel, got %v", kernel)
	}
}

// TestSmoothWrapPreservesMass ensures wrapped smoothing conserves the grid total.
func TestSmoothWrapPreservesMass(t *testing.T) {
	nt, ny, nx := 4, 8, 16
	data := make([]float64, nt*ny*nx)
	data[0] = 100
	data[3*ny*nx+5*nx+9] = 50

	total := func(values []float64) float64 {
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return sum
	}

	smoothed := SmoothWrap3(data, nt, ny, nx, 1.5)
	if math.Abs(total(smoothed)-total(data)) > 1e-6 {
		t.Fatalf("expected mass %f preserved, got %f", total(data), total(smoothed))
	}
	if smoothed[0] >= 100 {
		t.Fatalf("expected spike to spread, still %f", smoothed[0])
	}
}

// TestSmoothWrapSpreadsAcrossBoundary ensures the wrap mode leaks mass
// around the grid edges instead of clipping.
func TestSmoothWrapSpreadsAcrossBoundary(t *testing.T) {
	ny, nx := 8, 16
	data := make([]float64, ny*nx)
	data[0] = 100 // corner spike

	smoothed := SmoothWrap2(data, ny, nx, 1.0)
	opposite := smoothed[(ny-1)*nx+(nx-1)]
	if opposite <= 0 {
		t.Fatalf("expected wrap to reach the opposite corner, got %f", opposite)
	}
}

// TestGradientMagSum3FlatFieldIsZero ensures a constant field has no gradient.
func TestGradientMagSum3FlatFieldIsZero(t *testing.T) {
	nt, ny, nx := 3, 4, 5
	data := make([]float64, nt*ny*nx)
	for i := range data {
		data[i] = 7.5
	}
	grad := GradientMagSum3(data, nt, ny, nx)
	for i, v := range grad {
		if v != 0 {
			t.Fatalf("expected zero gradient at %d, got %f", i, v)
		}
	}
}

// TestGradientMagSum3LinearRamp checks central differences on a ramp along x.
func TestGradientMagSum3LinearRamp(t *testing.T) {
	nt, ny, nx := 1, 2, 6
	data := make([]float64, nt*ny*nx)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			data[y*nx+x] = 2 * float64(x)
		}
	}
	grad := GradientMagSum3(data, nt, ny, nx)
	// Interior cells see slope 2 along x and 0 elsewhere.
	if math.Abs(grad[2]-2.0) > 1e-12 {
		t.Fatalf("expected interior gradient 2, got %f", grad[2])
	}
}
