package mechanism

import (
	"fmt"
	"linkage/types"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Joint 关节静态属性
// 运行时坐标保存在 Mechanism 的位姿向量中，Pos 只记录初始位置
type Joint struct {
	Name   string  // 关节名称(可选)
	Pos    r2.Vec  // 初始坐标
	Pinned bool    // 固定在机架上
	Center *r2.Vec // 旋转中心，仅驱动关节非空

	rel    r2.Vec  // 初始位置相对旋转中心的向量
	offset float64 // 初始角偏移
	radius float64 // 初始半径
	ready  bool
}

// NewJoint 创建自由关节
func NewJoint(name string, x, y float64) Joint {
	j := Joint{Name: name, Pos: r2.Vec{X: x, Y: y}}
	j.init()
	return j
}

// NewPinned 创建固定关节
func NewPinned(name string, x, y float64) Joint {
	j := Joint{Name: name, Pos: r2.Vec{X: x, Y: y}, Pinned: true}
	j.init()
	return j
}

// NewDriven 创建绕 center 旋转的驱动关节
func NewDriven(name string, x, y float64, center r2.Vec) Joint {
	j := Joint{Name: name, Pos: r2.Vec{X: x, Y: y}, Center: &center}
	j.init()
	return j
}

// init 计算驱动关节的初始角偏移和半径
func (j *Joint) init() {
	if j.Center != nil {
		c := *j.Center
		j.Center = &c
		j.rel = r2.Sub(j.Pos, c)
		j.offset = math.Atan2(j.rel.Y, j.rel.X)
		j.radius = r2.Norm(j.rel)
	}
	j.ready = true
}

// clone 值拷贝，不共享旋转中心
func (j Joint) clone() Joint {
	if j.Center != nil {
		c := *j.Center
		j.Center = &c
	}
	return j
}

// Kind 关节类型
func (j *Joint) Kind() types.JointKind {
	switch {
	case j.Center != nil:
		return types.JointDriven
	case j.Pinned:
		return types.JointPinned
	}
	return types.JointFree
}

// Offset 初始角偏移(弧度)
func (j *Joint) Offset() float64 {
	if !j.ready {
		j.init()
	}
	return j.offset
}

// Radius 初始半径
func (j *Joint) Radius() float64 {
	if !j.ready {
		j.init()
	}
	return j.radius
}

// PositionAt 返回驱动关节在绝对角 angle 处的坐标
func (j *Joint) PositionAt(angle float64) (r2.Vec, error) {
	if j.Center == nil {
		return r2.Vec{}, &types.PreconditionError{
			Op:  "PositionAt",
			Msg: fmt.Sprintf("joint %q has no rotation center", j.Name),
		}
	}
	if !j.ready {
		j.init()
	}
	// 以原点为中心旋转相对向量，再平移回旋转中心
	rot := r2.NewRotation(angle-j.offset, r2.Vec{})
	return r2.Add(*j.Center, rot.Rotate(j.rel)), nil
}

func (j Joint) String() string {
	return fmt.Sprintf("Joint(%s X:%g | Y:%g | %s)", j.Name, j.Pos.X, j.Pos.Y, j.Kind())
}
