// Package phiid decomposes time-lagged mutual information into the sixteen
// integrated-information atoms using the minimum-mutual-information (MMI)
// redundancy function under a joint Gaussian model.
package phiid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"

	"hyperit/domain/core"
	"hyperit/domain/result"
)

const atomCount = 16

// systemRows lists, per measured quantity, the atom indices (in
// result.AtomNames order) that sum to it. The first seven rows are the MMI
// redundancy constraints, the remaining nine are plain mutual informations.
// Together they pin down all sixteen atoms.
var systemRows = [atomCount][]int{
	{0},                            // rtr
	{0, 1},                         // Red(x,y ; x')
	{0, 2},                         // Red(x,y ; y')
	{0, 1, 2, 3},                   // Red(x,y ; x'y')
	{0, 4},                         // Red(x ; x',y')
	{0, 8},                         // Red(y ; x',y')
	{0, 4, 8, 12},                  // Red(xy ; x',y')
	{0, 1, 4, 5},                   // I(x ; x')
	{0, 2, 4, 6},                   // I(x ; y')
	{0, 1, 8, 9},                   // I(y ; x')
	{0, 2, 8, 10},                  // I(y ; y')
	{0, 1, 2, 3, 4, 5, 6, 7},       // I(x ; x'y')
	{0, 1, 2, 3, 8, 9, 10, 11},     // I(y ; x'y')
	{0, 1, 4, 5, 8, 9, 12, 13},     // I(xy ; x')
	{0, 2, 4, 6, 8, 10, 12, 14},    // I(xy ; y')
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, // I(xy ; x'y')
}

// GaussianMMI fits one multivariate Gaussian to the lagged joint block
// (x_t, y_t, x_{t+lag}, y_{t+lag}) and reads every local information term off
// its log-densities. Redundancy is the pointwise minimum of the candidate
// marginal informations.
type GaussianMMI struct{}

func NewGaussianMMI() *GaussianMMI { return &GaussianMMI{} }

func (g *GaussianMMI) Decompose(x, y [][]float64, lag int) (map[string][]float64, error) {
	if lag < 1 {
		return nil, core.NewValidationError("lag", fmt.Sprintf("%d must be at least 1", lag))
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, core.NewValidationError("observations",
			fmt.Sprintf("source has %d samples, target %d", len(x), len(y)))
	}
	dx, dy := len(x[0]), len(y[0])
	if dx == 0 || dy == 0 {
		return nil, core.NewValidationError("observations", "zero-width sample vectors")
	}
	for t := range x {
		if len(x[t]) != dx || len(y[t]) != dy {
			return nil, core.NewValidationError("observations",
				fmt.Sprintf("ragged sample width at row %d", t))
		}
	}

	dim := 2 * (dx + dy)
	n := len(x) - lag
	if n <= dim {
		return nil, fmt.Errorf("%w: %d lagged samples for a %d-dimensional joint model",
			core.ErrInsufficientData, n, dim)
	}

	// Lagged joint layout: past x, past y, future x, future y.
	z := mat.NewDense(n, dim, nil)
	for t := 0; t < n; t++ {
		c := 0
		for _, v := range x[t] {
			z.Set(t, c, v)
			c++
		}
		for _, v := range y[t] {
			z.Set(t, c, v)
			c++
		}
		for _, v := range x[t+lag] {
			z.Set(t, c, v)
			c++
		}
		for _, v := range y[t+lag] {
			z.Set(t, c, v)
			c++
		}
	}

	mean := make([]float64, dim)
	for c := 0; c < dim; c++ {
		mean[c] = stat.Mean(mat.Col(nil, c, z), nil)
	}
	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, z, nil)

	px := span(0, dx)
	py := span(dx, dy)
	fx := span(dx+dy, dx)
	fy := span(dx+dy+dx, dy)
	pxy := join(px, py)
	fxy := join(fx, fy)

	model := &gaussianModel{z: z, mean: mean, cov: &cov, n: n, logps: map[string][]float64{}}

	ixx, err := model.localMI(px, fx)
	if err != nil {
		return nil, err
	}
	ixy, err := model.localMI(px, fy)
	if err != nil {
		return nil, err
	}
	iyx, err := model.localMI(py, fx)
	if err != nil {
		return nil, err
	}
	iyy, err := model.localMI(py, fy)
	if err != nil {
		return nil, err
	}
	ixb, err := model.localMI(px, fxy)
	if err != nil {
		return nil, err
	}
	iyb, err := model.localMI(py, fxy)
	if err != nil {
		return nil, err
	}
	ibx, err := model.localMI(pxy, fx)
	if err != nil {
		return nil, err
	}
	iby, err := model.localMI(pxy, fy)
	if err != nil {
		return nil, err
	}
	ibb, err := model.localMI(pxy, fxy)
	if err != nil {
		return nil, err
	}

	// Per-sample right-hand side: seven pointwise-minimum redundancies then
	// the nine informations, in systemRows order.
	rhs := mat.NewDense(atomCount, n, nil)
	for t := 0; t < n; t++ {
		rhs.Set(0, t, min4(ixx[t], ixy[t], iyx[t], iyy[t]))
		rhs.Set(1, t, math.Min(ixx[t], iyx[t]))
		rhs.Set(2, t, math.Min(ixy[t], iyy[t]))
		rhs.Set(3, t, math.Min(ixb[t], iyb[t]))
		rhs.Set(4, t, math.Min(ixx[t], ixy[t]))
		rhs.Set(5, t, math.Min(iyx[t], iyy[t]))
		rhs.Set(6, t, math.Min(ibx[t], iby[t]))
		rhs.Set(7, t, ixx[t])
		rhs.Set(8, t, ixy[t])
		rhs.Set(9, t, iyx[t])
		rhs.Set(10, t, iyy[t])
		rhs.Set(11, t, ixb[t])
		rhs.Set(12, t, iyb[t])
		rhs.Set(13, t, ibx[t])
		rhs.Set(14, t, iby[t])
		rhs.Set(15, t, ibb[t])
	}

	coeff := mat.NewDense(atomCount, atomCount, nil)
	for r, cols := range systemRows {
		for _, c := range cols {
			coeff.Set(r, c, 1)
		}
	}

	var sol mat.Dense
	if err := sol.Solve(coeff, rhs); err != nil {
		return nil, fmt.Errorf("solving atom system: %w", err)
	}

	atoms := make(map[string][]float64, atomCount)
	for a, name := range result.AtomNames {
		local := make([]float64, n)
		for t := 0; t < n; t++ {
			local[t] = sol.At(a, t)
		}
		atoms[name] = local
	}
	return atoms, nil
}

// gaussianModel evaluates marginal log-densities of the fitted joint Gaussian
// over arbitrary index subsets, caching per-subset sample arrays.
type gaussianModel struct {
	z     *mat.Dense
	mean  []float64
	cov   *mat.SymDense
	n     int
	logps map[string][]float64
}

// localMI returns the per-sample local mutual information between the
// variables at index sets a and b.
func (m *gaussianModel) localMI(a, b []int) ([]float64, error) {
	lpa, err := m.logProbs(a)
	if err != nil {
		return nil, err
	}
	lpb, err := m.logProbs(b)
	if err != nil {
		return nil, err
	}
	lpj, err := m.logProbs(join(a, b))
	if err != nil {
		return nil, err
	}
	mi := make([]float64, m.n)
	for t := range mi {
		mi[t] = lpj[t] - lpa[t] - lpb[t]
	}
	return mi, nil
}

func (m *gaussianModel) logProbs(idx []int) ([]float64, error) {
	key := fmt.Sprint(idx)
	if lp, ok := m.logps[key]; ok {
		return lp, nil
	}

	d := len(idx)
	mu := make([]float64, d)
	sub := mat.NewSymDense(d, nil)
	for i, ri := range idx {
		mu[i] = m.mean[ri]
		for j := i; j < d; j++ {
			sub.SetSym(i, j, m.cov.At(ri, idx[j]))
		}
	}

	dist, ok := distmv.NewNormal(mu, sub, nil)
	if !ok {
		return nil, fmt.Errorf("%w: singular covariance over %d variables",
			core.ErrDegenerateSequence, d)
	}

	lp := make([]float64, m.n)
	row := make([]float64, d)
	for t := 0; t < m.n; t++ {
		for i, ri := range idx {
			row[i] = m.z.At(t, ri)
		}
		lp[t] = dist.LogProb(row)
	}
	m.logps[key] = lp
	return lp, nil
}

func span(start, width int) []int {
	out := make([]int, width)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func join(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func min4(a, b, c, d float64) float64 {
	return math.Min(math.Min(a, b), math.Min(c, d))
}
