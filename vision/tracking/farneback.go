package tracking

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/rimage"
)

// FlowField is a dense per-pixel displacement field.
type FlowField struct {
	U *mat.Dense
	V *mat.Dense
}

// Sample returns the bilinearly interpolated displacement at (x, y).
func (f *FlowField) Sample(x, y float64) r2.Point {
	return r2.Point{
		X: rimage.BilinearAt(f.U, x, y),
		Y: rimage.BilinearAt(f.V, x, y),
	}
}

// polyExpansion stores the per-pixel quadratic fit
// f(x) ~ c + b.x + x^T A x used by the Farneback algorithm.
type polyExpansion struct {
	a11, a12, a22 *mat.Dense
	b1, b2        *mat.Dense
}

// fbFlow is the Farneback dense optical flow. The pyramid is dyadic, so
// pyr_scale is honored as the closest power-of-two schedule.
type fbFlow struct {
	cfg *FarnebackConfig
}

func newFarnebackFlow(cfg *FarnebackConfig) *fbFlow {
	return &fbFlow{cfg: cfg}
}

func (fb *fbFlow) prepare(img *image.Gray) (*frameState, error) {
	fs := newFrameState(img)
	// mild pre-smoothing stabilizes the per-pixel quadratic fits
	smoothed := rimage.BlurGray(img, fb.cfg.PolySigma/2)
	pyramid, err := rimage.GetImagePyramid(smoothed, fb.cfg.NumLevels)
	if err != nil {
		return nil, errors.Wrap(err, "building farneback pyramid")
	}
	fs.pyramid = pyramid
	fs.poly = make([]*polyExpansion, len(pyramid.Images))
	for i, level := range pyramid.Images {
		fs.poly[i] = fb.polyExp(level)
	}
	return fs, nil
}

// polyExp fits a quadratic polynomial around every pixel with a Gaussian
// applicability window. The normal matrix is identical for every pixel, so
// it is inverted once.
func (fb *fbFlow) polyExp(img *image.Gray) *polyExpansion {
	n := fb.cfg.PolyN / 2
	sigma := fb.cfg.PolySigma
	size := 2*n + 1

	weights := make([]float64, size*size)
	basis := make([][6]float64, size*size)
	idx := 0
	for dy := -n; dy <= n; dy++ {
		for dx := -n; dx <= n; dx++ {
			w := math.Exp(-(float64(dx*dx + dy*dy)) / (2 * sigma * sigma))
			weights[idx] = w
			x, y := float64(dx), float64(dy)
			basis[idx] = [6]float64{1, x, y, x * x, y * y, x * y}
			idx++
		}
	}

	// normal matrix G = sum w * b * b^T
	g := mat.NewDense(6, 6, nil)
	for k, b := range basis {
		for i := 0; i < 6; i++ {
			for j := 0; j < 6; j++ {
				g.Set(i, j, g.At(i, j)+weights[k]*b[i]*b[j])
			}
		}
	}
	var gInv mat.Dense
	if err := gInv.Inverse(g); err != nil {
		// only happens for a degenerate applicability window
		gInv.CloneFrom(g)
	}

	m := rimage.GrayToFloat64(img)
	h, w := m.Dims()
	pe := &polyExpansion{
		a11: mat.NewDense(h, w, nil),
		a12: mat.NewDense(h, w, nil),
		a22: mat.NewDense(h, w, nil),
		b1:  mat.NewDense(h, w, nil),
		b2:  mat.NewDense(h, w, nil),
	}
	v := make([]float64, 6)
	coeffs := make([]float64, 6)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for i := range v {
				v[i] = 0
			}
			k := 0
			for dy := -n; dy <= n; dy++ {
				for dx := -n; dx <= n; dx++ {
					sy := clampIdx(y+dy, h)
					sx := clampIdx(x+dx, w)
					f := m.At(sy, sx) * weights[k]
					b := basis[k]
					for i := 0; i < 6; i++ {
						v[i] += f * b[i]
					}
					k++
				}
			}
			for i := 0; i < 6; i++ {
				coeffs[i] = 0
				for j := 0; j < 6; j++ {
					coeffs[i] += gInv.At(i, j) * v[j]
				}
			}
			pe.b1.Set(y, x, coeffs[1])
			pe.b2.Set(y, x, coeffs[2])
			pe.a11.Set(y, x, coeffs[3])
			pe.a22.Set(y, x, coeffs[4])
			pe.a12.Set(y, x, coeffs[5]/2)
		}
	}
	return pe
}

// computeFlowLevel runs the displacement update at one pyramid level,
// starting from the given initial flow (which it refines in place).
func (fb *fbFlow) computeFlowLevel(p1, p2 *polyExpansion, flow *FlowField, iters, winSize int) {
	h, w := flow.U.Dims()
	g11 := mat.NewDense(h, w, nil)
	g12 := mat.NewDense(h, w, nil)
	g22 := mat.NewDense(h, w, nil)
	h1 := mat.NewDense(h, w, nil)
	h2 := mat.NewDense(h, w, nil)

	for iter := 0; iter < iters; iter++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				du := flow.U.At(y, x)
				dv := flow.V.At(y, x)
				tx := clampIdx(int(math.Round(float64(x)+du)), w)
				ty := clampIdx(int(math.Round(float64(y)+dv)), h)

				a11 := (p1.a11.At(y, x) + p2.a11.At(ty, tx)) / 2
				a12 := (p1.a12.At(y, x) + p2.a12.At(ty, tx)) / 2
				a22 := (p1.a22.At(y, x) + p2.a22.At(ty, tx)) / 2
				db1 := -0.5*(p2.b1.At(ty, tx)-p1.b1.At(y, x)) + a11*du + a12*dv
				db2 := -0.5*(p2.b2.At(ty, tx)-p1.b2.At(y, x)) + a12*du + a22*dv

				g11.Set(y, x, a11*a11+a12*a12)
				g12.Set(y, x, a11*a12+a12*a22)
				g22.Set(y, x, a12*a12+a22*a22)
				h1.Set(y, x, a11*db1+a12*db2)
				h2.Set(y, x, a12*db1+a22*db2)
			}
		}
		smooth := boxBlur
		if fb.cfg.GaussianWin {
			smooth = gaussianBlur
		}
		sg11 := smooth(g11, winSize)
		sg12 := smooth(g12, winSize)
		sg22 := smooth(g22, winSize)
		sh1 := smooth(h1, winSize)
		sh2 := smooth(h2, winSize)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				det := sg11.At(y, x)*sg22.At(y, x) - sg12.At(y, x)*sg12.At(y, x)
				if math.Abs(det) < 1e-9 {
					continue
				}
				flow.U.Set(y, x, (sg22.At(y, x)*sh1.At(y, x)-sg12.At(y, x)*sh2.At(y, x))/det)
				flow.V.Set(y, x, (sg11.At(y, x)*sh2.At(y, x)-sg12.At(y, x)*sh1.At(y, x))/det)
			}
		}
	}
}

// computeFlow runs coarse-to-fine flow estimation between two prepared frames.
func (fb *fbFlow) computeFlow(prev, cur *frameState) *FlowField {
	levels := len(prev.poly)
	if l := len(cur.poly); l < levels {
		levels = l
	}
	var flow *FlowField
	for level := levels - 1; level >= 0; level-- {
		img := prev.pyramid.Images[level]
		h, w := img.Bounds().Dy(), img.Bounds().Dx()
		if flow == nil {
			flow = &FlowField{U: mat.NewDense(h, w, nil), V: mat.NewDense(h, w, nil)}
		} else {
			flow = upsampleFlow(flow, w, h)
		}
		fb.computeFlowLevel(prev.poly[level], cur.poly[level], flow, fb.cfg.NumIter, fb.cfg.WinSize)
	}
	return flow
}

func (fb *fbFlow) propagate(prev, cur *frameState, pts []r2.Point) ([]r2.Point, []bool, error) {
	if prev.poly == nil || cur.poly == nil {
		return nil, nil, errors.New("farneback propagation needs polynomial expansions on both frames")
	}
	if cur.flow == nil {
		cur.flow = fb.computeFlow(prev, cur)
	}
	out := make([]r2.Point, len(pts))
	ok := make([]bool, len(pts))
	for i, pt := range pts {
		d := cur.flow.Sample(pt.X, pt.Y)
		if math.IsNaN(d.X) || math.IsNaN(d.Y) {
			continue
		}
		next := pt.Add(d)
		if next.X < 0 || next.Y < 0 || next.X > float64(cur.cols-1) || next.Y > float64(cur.rows-1) {
			continue
		}
		out[i] = next
		ok[i] = true
	}
	return out, ok, nil
}

// boxBlur averages a matrix over a winSize x winSize window using summed
// area tables.
func boxBlur(m *mat.Dense, winSize int) *mat.Dense {
	h, w := m.Dims()
	half := winSize / 2
	// integral image with a leading zero row/column
	integral := mat.NewDense(h+1, w+1, nil)
	for y := 1; y <= h; y++ {
		rowSum := 0.0
		for x := 1; x <= w; x++ {
			rowSum += m.At(y-1, x-1)
			integral.Set(y, x, integral.At(y-1, x)+rowSum)
		}
	}
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		y0 := maxInt(y-half, 0)
		y1 := minInt(y+half+1, h)
		for x := 0; x < w; x++ {
			x0 := maxInt(x-half, 0)
			x1 := minInt(x+half+1, w)
			sum := integral.At(y1, x1) - integral.At(y0, x1) - integral.At(y1, x0) + integral.At(y0, x0)
			out.Set(y, x, sum/float64((y1-y0)*(x1-x0)))
		}
	}
	return out
}

// gaussianBlur averages a matrix under a Gaussian window of the given size.
func gaussianBlur(m *mat.Dense, winSize int) *mat.Dense {
	if winSize%2 == 0 {
		winSize++
	}
	kernel, err := rimage.NewKernel(winSize, winSize)
	if err != nil {
		return boxBlur(m, winSize)
	}
	sigma := float64(winSize) / 4
	half := winSize / 2
	for y := 0; y < winSize; y++ {
		for x := 0; x < winSize; x++ {
			dx, dy := float64(x-half), float64(y-half)
			kernel.Set(x, y, math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}
	out, err := rimage.ConvolveGrayFloat64(m, kernel.Normalize())
	if err != nil {
		return boxBlur(m, winSize)
	}
	return out
}

// upsampleFlow doubles a flow field to the given dimensions, scaling the
// displacements accordingly.
func upsampleFlow(flow *FlowField, w, h int) *FlowField {
	oh, ow := flow.U.Dims()
	up := &FlowField{U: mat.NewDense(h, w, nil), V: mat.NewDense(h, w, nil)}
	sx := float64(ow) / float64(w)
	sy := float64(oh) / float64(h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx := float64(x) * sx
			fy := float64(y) * sy
			up.U.Set(y, x, rimage.BilinearAt(flow.U, fx, fy)/sx)
			up.V.Set(y, x, rimage.BilinearAt(flow.V, fx, fy)/sy)
		}
	}
	return up
}

func clampIdx(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
