package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/opd-ai/toolsuniverse/limits"
	"github.com/sirupsen/logrus"
)

// PaletteConfig controls palette extraction.
type PaletteConfig struct {
	Colors       int    // Requested number of colours (1-32)
	MaxDimension int    // Longest side after downscaling (default 200)
	SampleStride int    // Use every Nth pixel (default 4)
	Iterations   int    // k-means passes (default 10)
	Seed         uint64 // Seed for k-means++ initialisation
}

// DefaultPaletteConfig returns the standard extractor settings.
func DefaultPaletteConfig() PaletteConfig {
	return PaletteConfig{
		Colors:       5,
		MaxDimension: 200,
		SampleStride: 4,
		Iterations:   10,
	}
}

func (c PaletteConfig) withDefaults() PaletteConfig {
	d := DefaultPaletteConfig()
	if c.MaxDimension == 0 {
		c.MaxDimension = d.MaxDimension
	}
	if c.SampleStride == 0 {
		c.SampleStride = d.SampleStride
	}
	if c.Iterations == 0 {
		c.Iterations = d.Iterations
	}
	return c
}

// Swatch is one palette entry.
type Swatch struct {
	Color      color.NRGBA `json:"-"`
	Hex        string      `json:"hex"`
	RGB        [3]uint8    `json:"rgb"`
	HSL        HSL         `json:"hsl"`
	Name       string      `json:"name"`
	Luminance  float64     `json:"luminance"`
	Population int         `json:"population"` // Sampled pixels assigned to this colour
}

// point is a sampled colour in RGB space.
type point [3]float64

func (p point) dist2(q point) float64 {
	dr, dg, db := p[0]-q[0], p[1]-q[1], p[2]-q[2]
	return dr*dr + dg*dg + db*db
}

// ExtractPalette finds the dominant colours of an image with k-means.
//
// The image is downscaled, sampled every SampleStride pixels (pixels with
// alpha below 128 are skipped) and clustered in RGB space. The number of
// clusters is the requested count or the number of distinct sampled colours,
// whichever is smaller. Swatches are ordered lightest first.
//
// Parameters:
//   - img: Source image
//   - cfg: Palette settings; zero fields other than Colors take defaults
//
// Returns:
//   - []Swatch: Palette, lightest first
//   - error: ErrInvalidColorCount, ErrNoOpaquePixels or ErrInvalidImage
func ExtractPalette(img image.Image, cfg PaletteConfig) ([]Swatch, error) {
	if err := limits.ValidatePaletteColors(cfg.Colors); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "ExtractPalette",
			"colors":   cfg.Colors,
			"error":    err.Error(),
		}).Error("Palette size validation failed")
		return nil, fmt.Errorf("%w: %v", ErrInvalidColorCount, err)
	}
	cfg = cfg.withDefaults()
	if cfg.MaxDimension < 0 || cfg.SampleStride < 0 || cfg.Iterations < 0 {
		return nil, fmt.Errorf("%w: negative palette setting", ErrInvalidParameter)
	}

	small, err := Downscale(img, cfg.MaxDimension)
	if err != nil {
		return nil, err
	}

	samples := samplePixels(small, cfg.SampleStride)
	if len(samples) == 0 {
		return nil, ErrNoOpaquePixels
	}

	unique := make(map[point]struct{})
	for _, p := range samples {
		unique[p] = struct{}{}
	}
	k := min(cfg.Colors, len(unique))

	logrus.WithFields(logrus.Fields{
		"function":  "ExtractPalette",
		"requested": cfg.Colors,
		"k":         k,
		"samples":   len(samples),
		"unique":    len(unique),
	}).Info("Starting palette extraction")

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))
	centers := seedCenters(samples, k, rng)
	counts := kmeans(samples, centers, cfg.Iterations)

	swatches := make([]Swatch, k)
	for i, c := range centers {
		nc := color.NRGBA{R: roundChannel(c[0]), G: roundChannel(c[1]), B: roundChannel(c[2]), A: 255}
		swatches[i] = Swatch{
			Color:      nc,
			Hex:        Hex(nc),
			RGB:        [3]uint8{nc.R, nc.G, nc.B},
			HSL:        ToHSL(nc),
			Name:       ColorName(nc),
			Luminance:  Luminance(nc),
			Population: counts[i],
		}
	}
	sort.SliceStable(swatches, func(a, b int) bool {
		if swatches[a].Luminance != swatches[b].Luminance {
			return swatches[a].Luminance > swatches[b].Luminance
		}
		return swatches[a].Hex < swatches[b].Hex
	})

	logrus.WithFields(logrus.Fields{
		"function": "ExtractPalette",
		"colors":   len(swatches),
	}).Info("Palette extraction completed")

	return swatches, nil
}

// samplePixels collects every stride-th opaque pixel in row-major order.
func samplePixels(img image.Image, stride int) []point {
	b := img.Bounds()
	var samples []point
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if i%stride == 0 {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if c.A >= 128 {
					samples = append(samples, point{float64(c.R), float64(c.G), float64(c.B)})
				}
			}
			i++
		}
	}
	return samples
}

// seedCenters picks k initial centres with k-means++: each new centre is a
// sample chosen with probability proportional to its squared distance from
// the nearest existing centre. Samples equal to a centre have zero weight, so
// with k no larger than the distinct colour count all centres are distinct.
func seedCenters(samples []point, k int, rng *rand.Rand) []point {
	centers := make([]point, 0, k)
	centers = append(centers, samples[rng.IntN(len(samples))])

	nearest := make([]float64, len(samples))
	for i, p := range samples {
		nearest[i] = p.dist2(centers[0])
	}

	for len(centers) < k {
		var total float64
		for _, d := range nearest {
			total += d
		}
		target := rng.Float64() * total
		chosen := -1
		for i, d := range nearest {
			if d == 0 {
				continue
			}
			chosen = i
			target -= d
			if target < 0 {
				break
			}
		}
		c := samples[chosen]
		centers = append(centers, c)
		for i, p := range samples {
			if d := p.dist2(c); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	return centers
}

// kmeans refines centers in place with a fixed number of Lloyd passes and
// returns the final cluster sizes. An empty cluster is moved to the sample
// farthest from its current centre.
func kmeans(samples []point, centers []point, iterations int) []int {
	assign := make([]int, len(samples))
	counts := make([]int, len(centers))

	assignAll := func() {
		for i := range counts {
			counts[i] = 0
		}
		for i, p := range samples {
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				if d := p.dist2(center); d < bestDist {
					best, bestDist = c, d
				}
			}
			assign[i] = best
			counts[best]++
		}
	}

	for iter := 0; iter < iterations; iter++ {
		assignAll()

		sums := make([]point, len(centers))
		for i, p := range samples {
			c := assign[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			sums[c][2] += p[2]
		}
		for c := range centers {
			if counts[c] == 0 {
				centers[c] = farthestSample(samples, assign, centers)
				continue
			}
			n := float64(counts[c])
			centers[c] = point{sums[c][0] / n, sums[c][1] / n, sums[c][2] / n}
		}
	}

	assignAll()
	return counts
}

func farthestSample(samples []point, assign []int, centers []point) point {
	best, bestDist := 0, -1.0
	for i, p := range samples {
		if d := p.dist2(centers[assign[i]]); d > bestDist {
			best, bestDist = i, d
		}
	}
	return samples[best]
}

func roundChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// PaletteImage renders swatches as a horizontal strip of size×size squares.
func PaletteImage(swatches []Swatch, size int) (*image.NRGBA, error) {
	if len(swatches) == 0 {
		return nil, fmt.Errorf("%w: no swatches", ErrInvalidParameter)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: swatch size must be positive: %d", ErrInvalidParameter, size)
	}

	out := image.NewNRGBA(image.Rect(0, 0, size*len(swatches), size))
	for i, s := range swatches {
		c := s.Color
		c.A = 255
		for y := 0; y < size; y++ {
			for x := i * size; x < (i+1)*size; x++ {
				out.SetNRGBA(x, y, c)
			}
		}
	}
	return out, nil
}
