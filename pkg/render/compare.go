package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Diff is the outcome of comparing two snapshots.
type Diff struct {
	DifferentPixels int
	TotalPixels     int
	MaxDifference   int // largest 8-bit channel difference
	// Mask marks differing pixels red over a grey copy of the actual image.
	Mask *image.RGBA
}

// Match reports whether no pixel differed beyond the tolerance.
func (d Diff) Match() bool { return d.DifferentPixels == 0 }

// Compare compares actual against expected pixel by pixel. Pixels whose
// channels differ by at most tolerance (0-255) count as equal.
func Compare(actual, expected image.Image, tolerance int) (Diff, error) {
	ab, eb := actual.Bounds(), expected.Bounds()
	if ab.Size() != eb.Size() {
		return Diff{}, fmt.Errorf("image sizes differ: actual=%v expected=%v", ab.Size(), eb.Size())
	}
	d := Diff{
		TotalPixels: ab.Dx() * ab.Dy(),
		Mask:        image.NewRGBA(image.Rect(0, 0, ab.Dx(), ab.Dy())),
	}
	for y := 0; y < ab.Dy(); y++ {
		for x := 0; x < ab.Dx(); x++ {
			a := actual.At(ab.Min.X+x, ab.Min.Y+y)
			diff := channelDiff(a, expected.At(eb.Min.X+x, eb.Min.Y+y))
			d.MaxDifference = max(d.MaxDifference, diff)
			if diff > tolerance {
				d.DifferentPixels++
				d.Mask.Set(x, y, color.RGBA{255, 0, 0, 255})
				continue
			}
			d.Mask.Set(x, y, color.GrayModel.Convert(a))
		}
	}
	return d, nil
}

// CompareFile compares actual against the PNG at path.
func CompareFile(actual image.Image, path string, tolerance int) (Diff, error) {
	f, err := os.Open(path)
	if err != nil {
		return Diff{}, err
	}
	defer f.Close()
	expected, err := png.Decode(f)
	if err != nil {
		return Diff{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return Compare(actual, expected, tolerance)
}

func channelDiff(a, b color.Color) int {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return max(
		absDiff(ar>>8, br>>8),
		absDiff(ag>>8, bg>>8),
		absDiff(ab>>8, bb>>8),
		absDiff(aa>>8, ba>>8),
	)
}

func absDiff(a, b uint32) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
