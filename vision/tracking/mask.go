package tracking

import (
	"image"
	"image/color"
	"image/draw"
)

const (
	maskValid   = 255
	maskInvalid = 0
)

// Mask is a per-pixel map of where new-feature detection is permitted.
// Pixels are white (valid) or black (invalid); pixels within margin of any
// edge are always invalid regardless of the stored state.
type Mask struct {
	img      *image.Gray
	margin   int
	maskSize int
}

// NewMask allocates a fully valid mask with the given dimensions.
func NewMask(cols, rows, margin, maskSize int) *Mask {
	m := &Mask{
		img:      image.NewGray(image.Rect(0, 0, cols, rows)),
		margin:   margin,
		maskSize: maskSize,
	}
	m.Reset()
	return m
}

// Reset makes the whole mask valid again. Called at the start of every frame
// before exclusion zones are carved.
func (m *Mask) Reset() {
	draw.Draw(m.img, m.img.Bounds(), &image.Uniform{color.Gray{maskValid}}, image.Point{}, draw.Src)
}

// CarveExclusion makes all pixels in a maskSize x maskSize box centered at
// (x, y) invalid, so no new feature is detected on the same corner.
func (m *Mask) CarveExclusion(x, y float64) {
	half := m.maskSize / 2
	cx, cy := int(x), int(y)
	bounds := m.img.Bounds()
	for py := cy - half; py <= cy+half; py++ {
		if py < 0 || py >= bounds.Max.Y {
			continue
		}
		for px := cx - half; px <= cx+half; px++ {
			if px < 0 || px >= bounds.Max.X {
				continue
			}
			m.img.SetGray(px, py, color.Gray{maskInvalid})
		}
	}
}

// Valid reports whether (x, y) is a permitted detection site: inside the
// image, outside the border margin and not carved out.
func (m *Mask) Valid(x, y float64) bool {
	bounds := m.img.Bounds()
	xi, yi := int(x), int(y)
	if xi < m.margin || yi < m.margin ||
		xi > bounds.Max.X-1-m.margin || yi > bounds.Max.Y-1-m.margin {
		return false
	}
	return m.img.GrayAt(xi, yi).Y == maskValid
}
