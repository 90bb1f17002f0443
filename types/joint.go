package types

import "gonum.org/v1/gonum/spatial/r2"

// JointID 关节索引
type JointID = int

// RodID 连杆索引
type RodID = int

// JointKind 关节类型
type JointKind uint8

const (
	JointFree   JointKind = iota // 自由关节
	JointPinned                  // 固定关节
	JointDriven                  // 驱动关节
)

func (k JointKind) String() string {
	switch k {
	case JointPinned:
		return "pinned"
	case JointDriven:
		return "driven"
	default:
		return "free"
	}
}

// Topology 机构拓扑只读接口
type Topology interface {
	NumJoints() int
	NumRods() int
	JointName(id JointID) string
	JointKind(id JointID) JointKind
	RodEnds(id RodID) (start, end JointID)
	Position(id JointID) r2.Vec
}

// Frame 单帧求解结果
type Frame struct {
	Index  int      // 帧序号
	Angle  float64  // 驱动角(弧度)
	Joints []r2.Vec // 全部关节坐标
}
