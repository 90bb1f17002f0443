package mechanism

import (
	"fmt"
	"linkage/types"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Mechanism 平面连杆机构
// 关节静态属性与可变位姿向量分离，连杆只保存关节索引
type Mechanism struct {
	joints []Joint    // 关节列表
	rods   []Rod      // 连杆列表
	pose   []float64  // 当前位姿 [x0, y0, x1, y1, ...]
	conn   *mat.Dense // 连接矩阵 (2m x 2n)
	refs   []float64  // 初始杆长
}

// New 创建机构并生成连接矩阵，拓扑校验由 Validate 完成
func New(joints []Joint, rods []Rod) (*Mechanism, error) {
	if len(joints) == 0 {
		return nil, &types.PreconditionError{Op: "New", Msg: "mechanism has no joints"}
	}
	m := &Mechanism{
		joints: make([]Joint, len(joints)),
		rods:   make([]Rod, len(rods)),
		pose:   make([]float64, 2*len(joints)),
	}
	copy(m.joints, joints)
	copy(m.rods, rods)
	for i := range m.joints {
		m.joints[i].init()
		m.pose[2*i] = m.joints[i].Pos.X
		m.pose[2*i+1] = m.joints[i].Pos.Y
	}
	for i, rod := range m.rods {
		if rod.Start < 0 || rod.Start >= len(joints) || rod.End < 0 || rod.End >= len(joints) {
			return nil, &types.PreconditionError{
				Op:  "New",
				Msg: fmt.Sprintf("rod %d references unknown joint (%d, %d)", i, rod.Start, rod.End),
			}
		}
	}
	m.conn = connectivity(len(m.joints), m.rods)
	m.refs = m.ComputeRodLengths(m.RodVectors(m.initialPose()))
	return m, nil
}

// initialPose 初始位姿
func (m *Mechanism) initialPose() []float64 {
	x := make([]float64, 2*len(m.joints))
	for i, j := range m.joints {
		x[2*i], x[2*i+1] = j.Pos.X, j.Pos.Y
	}
	return x
}

// Joints 关节列表副本，旋转中心一并复制
func (m *Mechanism) Joints() []Joint {
	js := make([]Joint, len(m.joints))
	for i, j := range m.joints {
		js[i] = j.clone()
	}
	return js
}

// Joint 获取关节副本
func (m *Mechanism) Joint(id types.JointID) Joint { return m.joints[id].clone() }

// Rods 连杆列表副本
func (m *Mechanism) Rods() []Rod { return append([]Rod(nil), m.rods...) }

func (m *Mechanism) NumJoints() int { return len(m.joints) }
func (m *Mechanism) NumRods() int   { return len(m.rods) }

// JointName 关节名称，未命名时返回 p<索引>
func (m *Mechanism) JointName(id types.JointID) string {
	if n := m.joints[id].Name; n != "" {
		return n
	}
	return fmt.Sprintf("p%d", id)
}

func (m *Mechanism) JointKind(id types.JointID) types.JointKind { return m.joints[id].Kind() }

func (m *Mechanism) RodEnds(id types.RodID) (start, end types.JointID) {
	return m.rods[id].Start, m.rods[id].End
}

// Position 关节当前坐标
func (m *Mechanism) Position(id types.JointID) r2.Vec {
	return r2.Vec{X: m.pose[2*id], Y: m.pose[2*id+1]}
}

// SetPosition 设置关节当前坐标
func (m *Mechanism) SetPosition(id types.JointID, p r2.Vec) {
	m.pose[2*id], m.pose[2*id+1] = p.X, p.Y
}

// Positions 全部关节当前坐标
func (m *Mechanism) Positions() []r2.Vec {
	ps := make([]r2.Vec, len(m.joints))
	for i := range ps {
		ps[i] = m.Position(i)
	}
	return ps
}

// Pose 当前位姿副本
func (m *Mechanism) Pose() []float64 { return append([]float64(nil), m.pose...) }

// SetPose 覆盖当前位姿
func (m *Mechanism) SetPose(pose []float64) {
	if len(pose) != len(m.pose) {
		panic(fmt.Sprintf("pose dimension mismatch: got %d, expected %d", len(pose), len(m.pose)))
	}
	copy(m.pose, pose)
}

// Reset 恢复初始位姿
func (m *Mechanism) Reset() { copy(m.pose, m.initialPose()) }

// FreeJoints 非固定且非驱动的关节索引
func (m *Mechanism) FreeJoints() []types.JointID {
	var ids []types.JointID
	for i := range m.joints {
		if m.joints[i].Kind() == types.JointFree {
			ids = append(ids, i)
		}
	}
	return ids
}

// DrivenJoint 第一个驱动关节
func (m *Mechanism) DrivenJoint() (types.JointID, bool) {
	for i := range m.joints {
		if m.joints[i].Center != nil {
			return i, true
		}
	}
	return -1, false
}

// Clone 深拷贝，供独立求解使用
func (m *Mechanism) Clone() *Mechanism {
	c := &Mechanism{
		joints: m.Joints(),
		rods:   m.Rods(),
		pose:   m.Pose(),
		refs:   append([]float64(nil), m.refs...),
	}
	// 无连杆时没有连接矩阵
	if m.conn != nil {
		c.conn = mat.DenseCopyOf(m.conn)
	}
	for i := range c.joints {
		c.joints[i].init()
	}
	return c
}

// String 输出结构
func (m *Mechanism) String() string {
	var b strings.Builder
	for i := range m.joints {
		p := m.Position(i)
		fmt.Fprintf(&b, "Joint %d: %s (%g, %g) %s\n", i, m.JointName(i), p.X, p.Y, m.joints[i].Kind())
	}
	for i, r := range m.rods {
		fmt.Fprintf(&b, "Rod %d: %s-%s %g\n", i, m.JointName(r.Start), m.JointName(r.End), m.refs[i])
	}
	return b.String()
}
