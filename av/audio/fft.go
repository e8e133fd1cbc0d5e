package audio

import "math"

// FFT computes an in-place radix-2 Cooley-Tukey transform.
//
// len(data) must be a power of two; other lengths are left untouched.
func FFT(data []complex128) {
	n := len(data)
	if n <= 1 || n&(n-1) != 0 {
		return
	}

	// Bit-reverse ordering
	for i, j := 0, 0; i < n; i++ {
		if j > i {
			data[i], data[j] = data[j], data[i]
		}
		bit := n >> 1
		for j&bit != 0 {
			j ^= bit
			bit >>= 1
		}
		j ^= bit
	}

	for size := 2; size <= n; size <<= 1 {
		halfSize := size >> 1
		step := -2 * math.Pi / float64(size)
		wStep := complex(math.Cos(step), math.Sin(step))
		for i := 0; i < n; i += size {
			w := complex(1, 0)
			for j := 0; j < halfSize; j++ {
				u := data[i+j]
				v := data[i+j+halfSize] * w
				data[i+j] = u + v
				data[i+j+halfSize] = u - v
				w *= wStep
			}
		}
	}
}

// IFFT computes the inverse transform using the conjugate trick.
func IFFT(data []complex128) {
	n := len(data)
	if n == 0 {
		return
	}

	for i := range data {
		data[i] = complex(real(data[i]), -imag(data[i]))
	}

	FFT(data)

	scale := 1.0 / float64(n)
	for i := range data {
		data[i] = complex(real(data[i])*scale, -imag(data[i])*scale)
	}
}

// NextPowerOfTwo returns the smallest power of two >= n.
func NextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// HannWindow returns a symmetric Hann window of the given size.
func HannWindow(size int) []float64 {
	window := make([]float64, size)
	if size == 1 {
		window[0] = 1
		return window
	}
	for i := 0; i < size; i++ {
		window[i] = 0.5 * (1.0 - math.Cos(2.0*math.Pi*float64(i)/float64(size-1)))
	}
	return window
}
