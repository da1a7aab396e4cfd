package numerickit

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerate is returned when an OLS design matrix is rank-deficient: a
// numerical precondition violation is surfaced explicitly rather than
// coerced into a finite-but-wrong coefficient.
var ErrDegenerate = errors.New("degenerate: rank-deficient design matrix")

// OLSResult holds the fitted coefficients, residuals, and R^2 of a linear
// regression of y on X (with an implicit intercept column prepended).
type OLSResult struct {
	Intercept float64
	Coefficients []float64
	Residuals []float64
	RSquared float64
}

// OLS fits y ~ 1 + X by ordinary least squares. X is row-major: len(X) == len(y)
// observations, each row having the same number of predictor columns.
// Returns ErrDegenerate when the design matrix does not have full column rank
// (e.g. a constant predictor, or fewer observations than parameters).
func OLS(y []float64, x [][]float64) (*OLSResult, error) {
	n := len(y)
	if n == 0 || len(x) != n {
		return nil, ErrDegenerate
	}
	p := len(x[0]) + 1 // +1 for intercept
	if n < p {
		return nil, ErrDegenerate
	}

	design := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		if len(x[i]) != p-1 {
			return nil, ErrDegenerate
		}
		design.Set(i, 0, 1)
		for j, v := range x[i] {
			design.Set(i, j+1, v)
		}
	}
	yVec := mat.NewVecDense(n, y)

	var qr mat.QR
	qr.Factorize(design)

	var rank int
	rank = matrixRank(&qr, p)
	if rank < p {
		return nil, ErrDegenerate
	}

	var beta mat.VecDense
	if err := qr.SolveVec(&beta, false, yVec); err != nil {
		return nil, ErrDegenerate
	}

	coeffs := make([]float64, p)
	for i := 0; i < p; i++ {
		coeffs[i] = beta.AtVec(i)
	}

	residuals := make([]float64, n)
	var ssRes, ssTot float64
	yMean := Mean(y)
	for i := 0; i < n; i++ {
		var fitted float64
		fitted += coeffs[0]
		for j := 0; j < p-1; j++ {
			fitted += coeffs[j+1] * x[i][j]
		}
		resid := y[i] - fitted
		residuals[i] = resid
		ssRes += resid * resid
		d := y[i] - yMean
		ssTot += d * d
	}

	rSquared := 1.0
	if ssTot > Epsilon {
		rSquared = 1 - ssRes/ssTot
	}

	return &OLSResult{
		Intercept: coeffs[0],
		Coefficients: coeffs[1:],
		Residuals: residuals,
		RSquared: rSquared,
	}, nil
}

// matrixRank estimates the rank of the factorized design matrix by counting
// non-negligible diagonal entries of R.
func matrixRank(qr *mat.QR, p int) int {
	var r mat.Dense
	qr.RTo(&r)
	rank := 0
	for i := 0; i < p; i++ {
		if abs(r.At(i, i)) > 1e-8 {
			rank++
		}
	}
	return rank
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SimpleOLS is the single-predictor convenience form used by the cointegration
// hedge-ratio estimation (a = intercept + beta*b).
func SimpleOLS(a, b []float64) (intercept, beta float64, residuals []float64, err error) {
	x := make([][]float64, len(b))
	for i, v := range b {
		x[i] = []float64{v}
	}
	res, err := OLS(a, x)
	if err != nil {
		return 0, 0, nil, err
	}
	return res.Intercept, res.Coefficients[0], res.Residuals, nil
}
