package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Gradient 通用无约束优化器，最小化 0.5*|r|^2，梯度为 Jᵀr
type Gradient struct {
	Method optimize.Method // 为空时使用 BFGS
}

// Minimize 求解
func (gm *Gradient) Minimize(f ResidualFunc, x0 []float64, m int, s Settings) (*Result, error) {
	n := len(x0)
	if n == 0 || m == 0 {
		return NewLevenbergMarquardt().Minimize(f, x0, m, s)
	}
	r := make([]float64, m)
	J := mat.NewDense(m, n, nil)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			f(r, x)
			if !finite(r) {
				return math.Inf(1)
			}
			return cost(r)
		},
		Grad: func(grad, x []float64) {
			f(r, x)
			jacobian(J, f, x)
			g := mat.NewVecDense(n, grad)
			g.MulVec(J.T(), mat.NewVecDense(m, r))
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: s.Tolerance,
		MajorIterations:   s.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.Tolerance * s.Tolerance,
			Relative:   s.Tolerance,
			Iterations: 20,
		},
	}
	method := gm.Method
	if method == nil {
		method = &optimize.BFGS{}
	}
	out, err := optimize.Minimize(problem, x0, settings, method)
	if out == nil {
		return nil, err
	}
	res := &Result{
		X:          append([]float64(nil), out.X...),
		Residuals:  make([]float64, m),
		Iterations: out.MajorIterations,
		Status:     out.Status.String(),
	}
	f(res.Residuals, res.X)
	res.Cost = cost(res.Residuals)
	if !finite(res.Residuals) {
		return res, ErrNotFinite
	}
	// 线搜索在残差已为零附近可能报错，此时结果仍然有效
	if err != nil && res.Cost > s.Tolerance*s.Tolerance {
		return res, err
	}
	if out.Status == optimize.IterationLimit {
		return res, ErrNotConverged
	}
	return res, nil
}
