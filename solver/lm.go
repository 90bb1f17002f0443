package solver

import (
	"fmt"
	"linkage/types"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LevenbergMarquardt 阻尼高斯-牛顿最小二乘
// 每步求解 (JᵀJ + λI)h = -Jᵀr，按增益比自适应调整 λ
type LevenbergMarquardt struct {
	DampingFactor    float64 // 初始阻尼因子 τ，λ0 = τ*max(diag(JᵀJ))
	MinDampingFactor float64 // 最小阻尼因子
	MaxDampingFactor float64 // 最大阻尼因子，超出视为奇异
}

// NewLevenbergMarquardt 使用默认阻尼参数创建
func NewLevenbergMarquardt() *LevenbergMarquardt {
	return &LevenbergMarquardt{
		DampingFactor:    types.DampingFactor,
		MinDampingFactor: types.MinDampingFactor,
		MaxDampingFactor: types.MaxDampingFactor,
	}
}

// Minimize 求解
func (lm *LevenbergMarquardt) Minimize(f ResidualFunc, x0 []float64, m int, s Settings) (*Result, error) {
	n := len(x0)
	x := append([]float64(nil), x0...)
	r := make([]float64, m)
	res := &Result{X: x, Residuals: r}
	if n == 0 || m == 0 {
		if m > 0 {
			f(r, x)
		}
		res.Cost = cost(r)
		res.Status = "NoUnknowns"
		return res, nil
	}
	f(r, x)
	if !finite(r) {
		res.Status = "NotFinite"
		return res, ErrNotFinite
	}
	res.Cost = cost(r)
	if res.Cost == 0 {
		res.Status = "ZeroResidual"
		return res, nil
	}

	J := mat.NewDense(m, n, nil)
	jtj := mat.NewSymDense(n, nil)
	a := mat.NewSymDense(n, nil)
	g := mat.NewVecDense(n, nil)
	h := mat.NewVecDense(n, nil)
	xn := make([]float64, n)
	rn := make([]float64, m)
	var chol mat.Cholesky

	lambda, nu := 0.0, 2.0
	for res.Iterations = 0; res.Iterations < s.MaxIterations; res.Iterations++ {
		// 线性化
		jacobian(J, f, x)
		if !finite(J.RawMatrix().Data) {
			res.Status = "NotFinite"
			return res, ErrNotFinite
		}
		jtj.SymOuterK(1, J.T())
		g.MulVec(J.T(), mat.NewVecDense(m, r))
		if mat.Norm(g, math.Inf(1)) <= s.Tolerance {
			res.Status = "GradientConvergence"
			return res, nil
		}
		if res.Iterations == 0 {
			var maxDiag float64
			for i := 0; i < n; i++ {
				maxDiag = math.Max(maxDiag, jtj.At(i, i))
			}
			lambda = math.Max(lm.DampingFactor*maxDiag, lm.MinDampingFactor)
		}
		for {
			// 阻尼方程
			a.CopySym(jtj)
			for i := 0; i < n; i++ {
				a.SetSym(i, i, jtj.At(i, i)+lambda)
			}
			if chol.Factorize(a) {
				if err := chol.SolveVecTo(h, g); err == nil {
					h.ScaleVec(-1, h)
					hn := mat.Norm(h, 2)
					if hn <= s.Tolerance*(floats.Norm(x, 2)+s.Tolerance) {
						res.Status = "StepConvergence"
						return res, nil
					}
					floats.AddTo(xn, x, h.RawVector().Data)
					f(rn, xn)
					cn := math.Inf(1)
					if finite(rn) {
						cn = cost(rn)
					}
					// 预测下降量 0.5*hᵀ(λh - g)
					pred := 0.5 * (lambda*mat.Dot(h, h) - mat.Dot(h, g))
					if rho := (res.Cost - cn) / pred; pred > 0 && rho > 0 {
						prev := res.Cost
						copy(x, xn)
						copy(r, rn)
						res.Cost = cn
						lambda *= math.Max(1.0/3.0, 1-math.Pow(2*rho-1, 3))
						lambda = math.Max(lambda, lm.MinDampingFactor)
						nu = 2
						switch {
						case res.Cost == 0:
							res.Iterations++
							res.Status = "ZeroResidual"
							return res, nil
						case prev-res.Cost <= s.Tolerance*prev:
							res.Iterations++
							res.Status = "FunctionConvergence"
							return res, nil
						}
						break
					}
				}
			}
			// 拒绝本步，增大阻尼
			lambda *= nu
			nu *= 2
			if lambda > lm.MaxDampingFactor || math.IsInf(nu, 0) {
				res.Status = "DampingOverflow"
				return res, fmt.Errorf("damping factor %.3e exceeds limit at iter=%d, cost=%.3e", lambda, res.Iterations, res.Cost)
			}
		}
	}
	res.Status = "IterationLimit"
	return res, ErrNotConverged
}
