package odometry

import (
	"gonum.org/v1/gonum/mat"
)

// lmDamping is a fixed Levenberg-Marquardt damping term added to the normal
// equations' diagonal. The original solves the undamped Gauss-Newton normal
// equations directly and instead regularizes purely through the eigenvalue
// projection below; a small fixed damping is kept here too since it costs
// nothing when the system is well conditioned and adds robustness when a
// sweep's geometry is close to (but above) the degeneracy threshold.
const lmDamping = 1e-4

// uniformWeight is applied during the first cfg.UniformWeightIterations of a
// sweep's optimization, per spec section 4.3.
const uniformWeight = 1.0

// residualRow is one row going into the normal equations: a 6-vector of
// partial derivatives and the residual value itself, both already scaled by
// the row's weight (matching the original's convention of folding the
// weight into the coefficients before assembly), so each squared residual
// enters the normal equations weighted by w^2 rather than by w.
type residualRow struct {
	jac [6]float64
	r   float64
}

// weightRow applies the spec's residual weighting, w = 1 - 1.8*|d|, to the
// raw jacobian row and residual; rows are dropped by returning ok=false when
// w <= 0.1. During the first uniformWeightIterations of a sweep, weighting
// is skipped and every row passes through unscaled.
func weightRow(jac [6]float64, d float64, iter, uniformWeightIterations int) (residualRow, bool) {
	w := uniformWeight
	if iter >= uniformWeightIterations {
		w = 1 - 1.8*absf(d)
		if w <= 0.1 {
			return residualRow{}, false
		}
	}
	var scaled [6]float64
	for i := range jac {
		scaled[i] = jac[i] * w
	}
	return residualRow{jac: scaled, r: d * w}, true
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// lmStep solves one Levenberg-Marquardt normal-equations step from the
// assembled residual rows, applying the eigenvalue-based degeneracy guard
// from spec section 4.3: directions of JtJ with eigenvalue below
// eigenThreshold are projected out of the solved delta before it is applied.
// Returns the 6-component delta in twist order.
func lmStep(rows []residualRow, eigenThreshold float64) [6]float64 {
	jtj := mat.NewSymDense(6, nil)
	jtr := mat.NewVecDense(6, nil)

	for _, row := range rows {
		for i := 0; i < 6; i++ {
			jtr.SetVec(i, jtr.AtVec(i)+row.jac[i]*row.r)
			for j := i; j < 6; j++ {
				jtj.SetSym(i, j, jtj.At(i, j)+row.jac[i]*row.jac[j])
			}
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(jtj, true)

	damped := mat.NewSymDense(6, nil)
	for i := 0; i < 6; i++ {
		for j := i; j < 6; j++ {
			v := jtj.At(i, j)
			if i == j {
				v += lmDamping
			}
			damped.SetSym(i, j, v)
		}
	}

	var deltaRaw mat.VecDense
	var chol mat.Cholesky
	if chol.Factorize(damped) {
		if err := chol.SolveVecTo(&deltaRaw, jtr); err != nil {
			return [6]float64{}
		}
	} else {
		return [6]float64{}
	}
	for i := 0; i < 6; i++ {
		deltaRaw.SetVec(i, -deltaRaw.AtVec(i))
	}

	if !ok {
		var out [6]float64
		for i := 0; i < 6; i++ {
			out[i] = deltaRaw.AtVec(i)
		}
		return out
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	degenerate := false
	for _, v := range values {
		if v < eigenThreshold {
			degenerate = true
			break
		}
	}
	if !degenerate {
		var out [6]float64
		for i := 0; i < 6; i++ {
			out[i] = deltaRaw.AtVec(i)
		}
		return out
	}

	// Project deltaRaw onto the subspace spanned by eigenvectors whose
	// eigenvalue clears the threshold, zeroing the degenerate directions:
	// delta = V * diag(mask) * V^T * deltaRaw.
	var vtDelta mat.VecDense
	vtDelta.MulVec(vectors.T(), &deltaRaw)
	for i, v := range values {
		if v < eigenThreshold {
			vtDelta.SetVec(i, 0)
		}
	}
	var projected mat.VecDense
	projected.MulVec(&vectors, &vtDelta)

	var out [6]float64
	for i := 0; i < 6; i++ {
		out[i] = projected.AtVec(i)
	}
	return out
}

func addDelta(c [6]float64, delta [6]float64) [6]float64 {
	var out [6]float64
	for i := range out {
		out[i] = c[i] + delta[i]
	}
	return out
}
