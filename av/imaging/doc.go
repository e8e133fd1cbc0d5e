// Package imaging provides the image routines behind the toolsuniverse
// image tools.
//
// # Core Components
//
//   - Decode / EncodePNG: PNG, JPEG, GIF, BMP and WebP input, PNG output
//   - Downscale: aspect-preserving reduction with golang.org/x/image/draw
//   - ExtractPalette: k-means colour quantization with k-means++ seeding
//   - Watermark: text overlay rendered with a fixed bitmap font
//
// Example of extracting a palette:
//
//	img, _, err := imaging.Decode(f)
//	if err != nil {
//	    return err
//	}
//	swatches, err := imaging.ExtractPalette(img, imaging.DefaultPaletteConfig())
//	for _, s := range swatches {
//	    fmt.Println(s.Hex, s.Name)
//	}
//
// Functions never modify their input image.
package imaging
