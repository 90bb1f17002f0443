package solver

import (
	"fmt"
	"linkage/mechanism"
	"linkage/types"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Solver 位置求解器
// 固定驱动角后以当前位姿为初值，迭代求解自由关节坐标使每根连杆保持参考长度
type Solver struct {
	mech        *mechanism.Mechanism
	refs        []float64       // 参考杆长
	free        []types.JointID // 自由关节索引
	settings    Settings
	residualTol float64 // 接受解时的最大残差
	minimizer   Minimizer
	last        *Result
}

// Option 求解器选项
type Option func(*Solver)

// WithTolerance 优化器收敛容差
func WithTolerance(tol float64) Option {
	return func(s *Solver) { s.settings.Tolerance = tol }
}

// WithResidualTolerance 接受解时允许的最大杆长残差
func WithResidualTolerance(tol float64) Option {
	return func(s *Solver) { s.residualTol = tol }
}

// WithMaxIterations 最大迭代次数
func WithMaxIterations(n int) Option {
	return func(s *Solver) { s.settings.MaxIterations = n }
}

// WithMinimizer 替换最小二乘求解器
func WithMinimizer(m Minimizer) Option {
	return func(s *Solver) { s.minimizer = m }
}

// New 创建求解器，参考杆长取自机构初始构型
func New(v *mechanism.Validated, opts ...Option) (*Solver, error) {
	if v == nil || v.Mechanism() == nil {
		return nil, &types.PreconditionError{Op: "solver.New", Msg: "mechanism has not been validated"}
	}
	m := v.Mechanism()
	s := &Solver{
		mech:        m,
		refs:        m.ReferenceLengths(),
		free:        m.FreeJoints(),
		settings:    DefaultSettings(),
		residualTol: types.ResidualTolerance,
		minimizer:   NewLevenbergMarquardt(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mechanism 求解的机构
func (s *Solver) Mechanism() *mechanism.Mechanism { return s.mech }

// References 参考杆长
func (s *Solver) References() []float64 { return append([]float64(nil), s.refs...) }

// FreeJoints 自由关节索引
func (s *Solver) FreeJoints() []types.JointID { return append([]types.JointID(nil), s.free...) }

// LastResult 最近一次优化结果
func (s *Solver) LastResult() *Result { return s.last }

// Residuals 当前位姿下每根连杆的 (当前长度 - 参考长度)
func (s *Solver) Residuals() []float64 {
	ls := s.mech.RodLengths()
	for i := range ls {
		ls[i] -= s.refs[i]
	}
	return ls
}

// residual 写入候选自由关节坐标并计算残差
func (s *Solver) residual(dst, x []float64) {
	for k, id := range s.free {
		s.mech.SetPosition(id, r2.Vec{X: x[2*k], Y: x[2*k+1]})
	}
	ls := s.mech.RodLengths()
	for i := range dst {
		dst[i] = ls[i] - s.refs[i]
	}
}

// guess 当前自由关节坐标作为初值
func (s *Solver) guess() []float64 {
	x := make([]float64, 2*len(s.free))
	for k, id := range s.free {
		p := s.mech.Position(id)
		x[2*k], x[2*k+1] = p.X, p.Y
	}
	return x
}

// Solve 求解驱动角 angle(弧度)下的自由关节坐标
// 成功时写回机构并返回自由关节坐标；失败时恢复求解前位姿并返回 SolverError
func (s *Solver) Solve(angle float64) (map[types.JointID]r2.Vec, error) {
	backup := s.mech.Pose()
	if err := s.mech.SetDrivenAngle(angle); err != nil {
		return nil, err
	}
	res, err := s.minimizer.Minimize(s.residual, s.guess(), len(s.refs), s.settings)
	s.last = res
	if err == nil && (res == nil || len(res.X) != 2*len(s.free) || !finite(res.X)) {
		err = ErrNotFinite
	}
	var rs []float64
	if err == nil {
		// 写回解并复核残差
		rs = make([]float64, len(s.refs))
		s.residual(rs, res.X)
		if worst := maxAbs(rs); math.IsNaN(worst) || worst > s.residualTol {
			err = fmt.Errorf("max residual %.3e exceeds tolerance %.3e", worst, s.residualTol)
		}
	}
	if err != nil {
		s.mech.SetPose(backup)
		return nil, s.failure(angle, res, rs, err)
	}
	coords := make(map[types.JointID]r2.Vec, len(s.free))
	for _, id := range s.free {
		coords[id] = s.mech.Position(id)
	}
	return coords, nil
}

// failure 构造求解错误
func (s *Solver) failure(angle float64, res *Result, rs []float64, err error) *types.SolverError {
	se := &types.SolverError{Angle: angle, Status: "Failure", Err: err}
	if res != nil {
		se.Status = res.Status
		se.Iterations = res.Iterations
		if rs == nil {
			rs = res.Residuals
		}
	}
	se.Residuals = append([]float64(nil), rs...)
	se.MaxResidual = maxAbs(rs)
	return se
}

func maxAbs(v []float64) float64 {
	var m float64
	for _, x := range v {
		if math.IsNaN(x) {
			return math.NaN()
		}
		m = math.Max(m, math.Abs(x))
	}
	return m
}
