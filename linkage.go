package linkage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"linkage/load"
	"linkage/mechanism"
	"linkage/solver"
	"linkage/types"
	"math"
	"os"
	"strconv"

	"github.com/rs/zerolog"
)

// Linkage 机构仿真器
type Linkage struct {
	*solver.Solver
	Name      string
	Names     []string // 关节名，下标即 JointID
	Validated *mechanism.Validated
	Logger    zerolog.Logger

	angle      float64 // 当前驱动角(弧度)
	solverOpts []solver.Option
}

// Option 仿真器选项
type Option func(*Linkage)

// WithLogger 设置日志
func WithLogger(l zerolog.Logger) Option {
	return func(lk *Linkage) { lk.Logger = l }
}

// WithSolverOptions 传递求解器选项
func WithSolverOptions(opts ...solver.Option) Option {
	return func(lk *Linkage) { lk.solverOpts = append(lk.solverOpts, opts...) }
}

// Open 加载配置文件并创建仿真器
func Open(path string, opts ...Option) (*Linkage, error) {
	cfg, err := load.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return New(cfg, opts...)
}

// New 校验配置中的机构并创建求解器
func New(cfg *load.Config, opts ...Option) (*Linkage, error) {
	m, err := cfg.Mechanism()
	if err != nil {
		return nil, err
	}
	v, err := m.Validate()
	if err != nil {
		return nil, err
	}
	lk := &Linkage{
		Name:      cfg.Name,
		Names:     cfg.Names(),
		Validated: v,
		Logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(lk)
	}
	if lk.Solver, err = solver.New(v, lk.solverOpts...); err != nil {
		return nil, err
	}
	lk.angle, err = m.DrivenAngle()
	return lk, err
}

// Angle 当前驱动角(弧度)
func (lk *Linkage) Angle() float64 { return lk.angle }

// Reset 恢复初始构型
func (lk *Linkage) Reset() {
	m := lk.Validated.Mechanism()
	m.Reset()
	lk.angle, _ = m.DrivenAngle()
}

// Sweep 驱动角扫描范围(度)，含两端点
type Sweep struct {
	Start  float64
	End    float64
	Frames int
}

// DefaultSweep 一整周，每度一帧
var DefaultSweep = Sweep{Start: 0, End: 360, Frames: 361}

// Angles 等距驱动角(弧度)
func (s Sweep) Angles() []float64 {
	if s.Frames <= 0 {
		return nil
	}
	angles := make([]float64, s.Frames)
	if s.Frames == 1 {
		angles[0] = s.Start * math.Pi / 180
		return angles
	}
	step := (s.End - s.Start) / float64(s.Frames-1)
	for i := range angles {
		angles[i] = (s.Start + float64(i)*step) * math.Pi / 180
	}
	angles[s.Frames-1] = s.End * math.Pi / 180
	return angles
}

// Simulate 按顺序求解每个驱动角，每帧以上一帧为初值
// 单帧失败时对步长二分，最多 types.MaxSubSteps 层；仍失败则返回已求解的帧和 SolverError
func (lk *Linkage) Simulate(sweep Sweep, debug types.Debug) ([]types.Frame, error) {
	angles := sweep.Angles()
	if len(angles) == 0 {
		return nil, &types.PreconditionError{Op: "Simulate", Msg: fmt.Sprintf("invalid frame count %d", sweep.Frames)}
	}
	m := lk.Validated.Mechanism()
	if debug != nil && debug.IsDebug() {
		debug.Init(m)
	} else {
		debug = nil
	}
	frames := make([]types.Frame, 0, len(angles))
	for i, a := range angles {
		backup := m.Pose()
		if err := lk.step(lk.angle, a, 0); err != nil {
			m.SetPose(backup)
			lk.Logger.Warn().Err(err).Int("frame", i).Float64("deg", a*180/math.Pi).Msg("frame failed")
			if debug != nil {
				debug.Error(err)
			}
			return frames, err
		}
		lk.angle = a
		frame := types.Frame{Index: i, Angle: a, Joints: m.Positions()}
		frames = append(frames, frame)
		if debug != nil {
			debug.Update(&frame)
		}
	}
	lk.Logger.Debug().Str("linkage", lk.Name).Int("frames", len(frames)).Msg("sweep done")
	return frames, nil
}

// step 从 from 推进到 to，失败时经中点分两段推进
func (lk *Linkage) step(from, to float64, depth int) error {
	_, err := lk.Solve(to)
	if err == nil {
		return nil
	}
	var se *types.SolverError
	if !errors.As(err, &se) || depth >= types.MaxSubSteps {
		return err
	}
	mid := (from + to) / 2
	lk.Logger.Debug().Int("depth", depth+1).
		Float64("from", from*180/math.Pi).
		Float64("to", to*180/math.Pi).
		Msg("sub-step")
	if err := lk.step(from, mid, depth+1); err != nil {
		return err
	}
	return lk.step(mid, to, depth+1)
}

// Export 导出 CSV，每帧每个关节一行
func (lk *Linkage) Export(w io.Writer, frames []types.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"frame", "angle_deg", "joint", "x", "y"}); err != nil {
		return err
	}
	for _, f := range frames {
		deg := formatFloat(f.Angle * 180 / math.Pi)
		for id, p := range f.Joints {
			name := strconv.Itoa(id)
			if id < len(lk.Names) {
				name = lk.Names[id]
			}
			if err := cw.Write([]string{strconv.Itoa(f.Index), deg, name, formatFloat(p.X), formatFloat(p.Y)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile 导出 CSV 文件
func (lk *Linkage) ExportFile(path string, frames []types.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lk.Export(file, frames); err != nil {
		file.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return file.Close()
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
