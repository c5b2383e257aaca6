package tracking

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/Ador2/xivo/rimage"
)

// minEigenThresh rejects windows whose gradient matrix is too close to
// singular to invert reliably.
const minEigenThresh = 1e-4

// lkFlow is the iterative pyramidal Lucas-Kanade tracker.
type lkFlow struct {
	cfg *LKConfig
}

func newLKFlow(cfg *LKConfig) *lkFlow {
	return &lkFlow{cfg: cfg}
}

func (lk *lkFlow) prepare(img *image.Gray) (*frameState, error) {
	fs := newFrameState(img)
	pyramid, err := rimage.GetImagePyramid(img, lk.cfg.MaxLevel)
	if err != nil {
		return nil, errors.Wrap(err, "building lucas-kanade pyramid")
	}
	fs.pyramid = pyramid
	fs.grads = make([]*rimage.Gradients, len(pyramid.Images))
	for i, level := range pyramid.Images {
		grads, err := rimage.SobelGradientsGray(level)
		if err != nil {
			return nil, errors.Wrapf(err, "gradients at pyramid level %d", i)
		}
		fs.grads[i] = grads
	}
	return fs, nil
}

func (lk *lkFlow) propagateOne(prev, cur *frameState, pt r2.Point) (r2.Point, bool) {
	half := float64(lk.cfg.WinSize / 2)
	top := len(prev.pyramid.Images) - 1
	// displacement guess carried from the coarser level
	var d r2.Point
	for level := top; level >= 0; level-- {
		scale := float64(prev.pyramid.Scales[level])
		prevImg := prev.pyramid.Images[level]
		curImg := cur.pyramid.Images[level]
		grads := prev.grads[level]
		p := r2.Point{X: pt.X / scale, Y: pt.Y / scale}

		bounds := prevImg.Bounds()
		if p.X-half < 0 || p.Y-half < 0 ||
			p.X+half > float64(bounds.Dx()-1) || p.Y+half > float64(bounds.Dy()-1) {
			// window does not fit at this level, rely on finer levels
			d = d.Mul(2)
			continue
		}

		// spatial gradient matrix of the template window
		var gxx, gxy, gyy float64
		for wy := -half; wy <= half; wy++ {
			for wx := -half; wx <= half; wx++ {
				ix := rimage.BilinearAt(grads.X, p.X+wx, p.Y+wy) / 8.
				iy := rimage.BilinearAt(grads.Y, p.X+wx, p.Y+wy) / 8.
				gxx += ix * ix
				gxy += ix * iy
				gyy += iy * iy
			}
		}
		det := gxx*gyy - gxy*gxy
		trace := gxx + gyy
		minEigen := (trace - math.Sqrt(trace*trace-4*det)) / 2
		if minEigen < minEigenThresh || det == 0 {
			if level == 0 {
				return r2.Point{}, false
			}
			d = d.Mul(2)
			continue
		}

		for iter := 0; iter < lk.cfg.MaxIter; iter++ {
			var bx, by float64
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					tv := rimage.BilinearGray(prevImg, p.X+wx, p.Y+wy)
					cv := rimage.BilinearGray(curImg, p.X+wx+d.X, p.Y+wy+d.Y)
					diff := tv - cv
					bx += diff * rimage.BilinearAt(grads.X, p.X+wx, p.Y+wy) / 8.
					by += diff * rimage.BilinearAt(grads.Y, p.X+wx, p.Y+wy) / 8.
				}
			}
			delta := r2.Point{
				X: (gyy*bx - gxy*by) / det,
				Y: (gxx*by - gxy*bx) / det,
			}
			d = d.Add(delta)
			if delta.Norm() < lk.cfg.Eps {
				break
			}
		}
		if level > 0 {
			d = d.Mul(2)
		}
	}
	if math.IsNaN(d.X) || math.IsNaN(d.Y) || math.IsInf(d.X, 0) || math.IsInf(d.Y, 0) {
		return r2.Point{}, false
	}
	next := pt.Add(d)
	if next.X < 0 || next.Y < 0 || next.X > float64(cur.cols-1) || next.Y > float64(cur.rows-1) {
		return r2.Point{}, false
	}
	return next, true
}

func (lk *lkFlow) propagate(prev, cur *frameState, pts []r2.Point) ([]r2.Point, []bool, error) {
	if prev.pyramid == nil || cur.pyramid == nil {
		return nil, nil, errors.New("lucas-kanade propagation needs pyramids on both frames")
	}
	out := make([]r2.Point, len(pts))
	ok := make([]bool, len(pts))
	for i, pt := range pts {
		out[i], ok[i] = lk.propagateOne(prev, cur, pt)
	}
	return out, ok, nil
}
