package rimage

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// ImagePyramid contains a number of downscaled octaves of a gray image along
// with the scale of each octave relative to the original.
type ImagePyramid struct {
	Images []*image.Gray
	Scales []int
}

// GetImagePyramid computes the pyramid of a given gray image. Each level
// halves the previous one until a level would drop below 8 pixels on a side
// or maxLevels levels exist.
func GetImagePyramid(img *image.Gray, maxLevels int) (*ImagePyramid, error) {
	if maxLevels < 1 {
		return nil, errors.New("pyramid needs at least one level")
	}
	bounds := img.Bounds()
	if bounds.Dx() < 8 || bounds.Dy() < 8 {
		return nil, errors.Errorf("image too small for a pyramid (%d x %d)", bounds.Dx(), bounds.Dy())
	}
	pyramid := &ImagePyramid{
		Images: []*image.Gray{img},
		Scales: []int{1},
	}
	current := img
	scale := 1
	for level := 1; level < maxLevels; level++ {
		w, h := current.Bounds().Dx()/2, current.Bounds().Dy()/2
		if w < 8 || h < 8 {
			break
		}
		down := imaging.Resize(current, w, h, imaging.Box)
		current = MakeGray(down)
		scale *= 2
		pyramid.Images = append(pyramid.Images, current)
		pyramid.Scales = append(pyramid.Scales, scale)
	}
	return pyramid, nil
}

// BlurGray applies a Gaussian blur with the given sigma to a gray image.
func BlurGray(img *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return img
	}
	return MakeGray(imaging.Blur(img, sigma))
}
