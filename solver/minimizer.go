package solver

import (
	"errors"
	"linkage/types"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// ResidualFunc 残差函数，将 x 处的残差写入 dst
type ResidualFunc func(dst, x []float64)

// Settings 优化器参数
type Settings struct {
	Tolerance     float64 // 步长/代价/梯度收敛容差
	MaxIterations int     // 最大迭代次数
}

// DefaultSettings 默认参数
func DefaultSettings() Settings {
	return Settings{
		Tolerance:     types.Tolerance,
		MaxIterations: types.MaxIterations,
	}
}

// Result 优化结果
type Result struct {
	X          []float64 // 解
	Residuals  []float64 // 解处残差
	Cost       float64   // 0.5*|r|^2
	Iterations int       // 迭代次数
	Status     string    // 终止原因
}

// Minimizer 非线性最小二乘求解器
// x0 为初始值，m 为残差个数
type Minimizer interface {
	Minimize(f ResidualFunc, x0 []float64, m int, s Settings) (*Result, error)
}

// MinimizerFunc 函数适配
type MinimizerFunc func(f ResidualFunc, x0 []float64, m int, s Settings) (*Result, error)

func (fn MinimizerFunc) Minimize(f ResidualFunc, x0 []float64, m int, s Settings) (*Result, error) {
	return fn(f, x0, m, s)
}

var (
	ErrNotFinite    = errors.New("residuals are not finite")
	ErrNotConverged = errors.New("maximum number of iterations reached")
)

// jacobian 中心差分雅可比
// 残差函数会写共享位姿，必须串行求值
func jacobian(dst *mat.Dense, f ResidualFunc, x []float64) {
	fd.Jacobian(dst, f, x, &fd.JacobianSettings{
		Formula:    fd.Central,
		Concurrent: false,
	})
}

// cost 0.5*|r|^2
func cost(r []float64) float64 {
	var s float64
	for _, v := range r {
		s += v * v
	}
	return 0.5 * s
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
