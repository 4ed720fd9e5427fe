// Package preprocess normalizes scanned drawing pages before recognition.
// All functions are pure: no I/O, and any internal failure returns the
// input unchanged rather than erroring.
package preprocess

import (
	"bytes"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// Options control enhancement. Zero values fall back to defaults.
type Options struct {
	// Contrast is the contrast multiplier (default 2.0).
	Contrast float64
	// DPIFloor is the minimum effective resolution; small scans are
	// upscaled until the long edge corresponds to this DPI on an A4
	// page. Recognition quality degrades below ~300 DPI.
	DPIFloor int
}

const (
	defaultContrast = 2.0
	defaultDPIFloor = 300
	// sharpnessBoost is fixed; drawings respond well to a mild unsharp
	// pass but over-sharpening amplifies scan noise.
	sharpnessBoost = 1.5

	// a4LongEdgeInches drives the DPI-floor upscale target.
	a4LongEdgeInches = 11.7

	// Mean-luma thresholds for automatic brightness correction.
	darkLuma   = 100.0
	brightLuma = 200.0
)

func (o Options) withDefaults() Options {
	if o.Contrast <= 0 {
		o.Contrast = defaultContrast
	}
	if o.DPIFloor <= 0 {
		o.DPIFloor = defaultDPIFloor
	}
	return o
}

// Enhance applies the standard preprocessing chain: upscale to the DPI
// floor, contrast and sharpness boost, automatic brightness correction,
// and a small-radius median filter for scan noise.
// The result is never smaller than the input.
func Enhance(img image.Image, opts Options) image.Image {
	if img == nil {
		return img
	}
	opts = opts.withDefaults()

	rgba := toRGBA(img)
	rgba = upscale(rgba, opts.DPIFloor)
	rgba = adjustContrast(rgba, opts.Contrast)
	rgba = sharpen(rgba, sharpnessBoost)
	rgba = autoBrightness(rgba)
	rgba = medianFilter(rgba)
	return rgba
}

// EnhanceAdvanced additionally converts to grayscale and applies adaptive
// binarization. Binarization destroys thin line-art, so callers use this
// only after the standard chain failed to yield usable text.
func EnhanceAdvanced(img image.Image, opts Options) image.Image {
	if img == nil {
		return img
	}
	enhanced := Enhance(img, opts)
	gray := toGray(enhanced)
	return binarizeAdaptive(gray)
}

// EnhanceBytes decodes, enhances, and re-encodes an image. Malformed
// pixel data returns the original bytes untouched.
func EnhanceBytes(data []byte, opts Options) []byte {
	return enhanceBytes(data, opts, Enhance)
}

// EnhanceBytesAdvanced is EnhanceBytes with the binarizing variant.
func EnhanceBytesAdvanced(data []byte, opts Options) []byte {
	return enhanceBytes(data, opts, EnhanceAdvanced)
}

func enhanceBytes(data []byte, opts Options, fn func(image.Image, Options) image.Image) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	out := fn(img, opts)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return data
	}
	return buf.Bytes()
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// upscale resizes with Catmull-Rom so the long edge reaches the DPI
// floor on an A4 page. Images already at or above the target pass
// through unchanged; downscaling never happens.
func upscale(img *image.RGBA, dpiFloor int) *image.RGBA {
	target := int(float64(dpiFloor) * a4LongEdgeInches)
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if long == 0 || long >= target {
		return img
	}

	scale := float64(target) / float64(long)
	// Cap the blow-up; beyond 4x interpolation invents no new detail.
	if scale > 4.0 {
		scale = 4.0
	}
	w := int(float64(b.Dx()) * scale)
	h := int(float64(b.Dy()) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func adjustContrast(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1.0 {
		return img
	}
	out := image.NewRGBA(img.Bounds())
	apply(img, out, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: clamp(128 + (float64(c.R)-128)*factor),
			G: clamp(128 + (float64(c.G)-128)*factor),
			B: clamp(128 + (float64(c.B)-128)*factor),
			A: c.A,
		}
	})
	return out
}

// sharpen blends the image with an unsharp mask: out = img + (factor-1)*(img - blur).
func sharpen(img *image.RGBA, factor float64) *image.RGBA {
	if factor == 1.0 {
		return img
	}
	blur := boxBlur(img)
	amount := factor - 1.0

	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			bl := blur.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: clamp(float64(c.R) + amount*(float64(c.R)-float64(bl.R))),
				G: clamp(float64(c.G) + amount*(float64(c.G)-float64(bl.G))),
				B: clamp(float64(c.B) + amount*(float64(c.B)-float64(bl.B))),
				A: c.A,
			})
		}
	}
	return out
}

func autoBrightness(img *image.RGBA) *image.RGBA {
	mean := meanLuma(img)

	var factor float64
	switch {
	case mean > 0 && mean < darkLuma:
		factor = darkLuma / mean
		if factor > 1.8 {
			factor = 1.8
		}
	case mean > brightLuma:
		factor = brightLuma / mean
	default:
		return img
	}

	out := image.NewRGBA(img.Bounds())
	apply(img, out, func(c color.RGBA) color.RGBA {
		return color.RGBA{
			R: clamp(float64(c.R) * factor),
			G: clamp(float64(c.G) * factor),
			B: clamp(float64(c.B) * factor),
			A: c.A,
		}
	})
	return out
}

func meanLuma(img *image.RGBA) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += luma(img.RGBAAt(x, y))
		}
	}
	return sum / float64(n)
}

func luma(c color.RGBA) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// medianFilter applies a radius-1 median per channel to suppress
// salt-and-pepper scan noise.
func medianFilter(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	var rs, gs, bs [9]uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					c := img.RGBAAt(nx, ny)
					rs[n], gs[n], bs[n] = c.R, c.G, c.B
					n++
				}
			}
			out.SetRGBA(x, y, color.RGBA{
				R: median(rs[:n]),
				G: median(gs[:n]),
				B: median(bs[:n]),
				A: img.RGBAAt(x, y).A,
			})
		}
	}
	return out
}

func median(v []uint8) uint8 {
	// Insertion sort; windows hold at most 9 values.
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
	return v[len(v)/2]
}

// binarizeAdaptive thresholds each pixel against the mean of its local
// window, which tolerates the uneven illumination typical of old scans.
const (
	binarizeWindow = 15
	binarizeOffset = 10
)

func binarizeAdaptive(gray *image.Gray) *image.Gray {
	b := gray.Bounds()
	out := image.NewGray(b)
	half := binarizeWindow / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum, n int
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					sum += int(gray.GrayAt(nx, ny).Y)
					n++
				}
			}
			threshold := sum/n - binarizeOffset
			if int(gray.GrayAt(x, y).Y) > threshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out
}

func boxBlur(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl, n int
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < b.Min.X || nx >= b.Max.X || ny < b.Min.Y || ny >= b.Max.Y {
						continue
					}
					c := img.RGBAAt(nx, ny)
					r += int(c.R)
					g += int(c.G)
					bl += int(c.B)
					n++
				}
			}
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(r / n),
				G: uint8(g / n),
				B: uint8(bl / n),
				A: img.RGBAAt(x, y).A,
			})
		}
	}
	return out
}

func apply(src, dst *image.RGBA, fn func(color.RGBA) color.RGBA) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetRGBA(x, y, fn(src.RGBAAt(x, y)))
		}
	}
}

func clamp(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
