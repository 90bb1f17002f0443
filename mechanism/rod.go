package mechanism

import (
	"fmt"
	"linkage/types"
)

// Rod 刚性连杆，由两端关节索引确定
type Rod struct {
	Start types.JointID
	End   types.JointID
}

// NewRod 创建连杆
func NewRod(start, end types.JointID) Rod { return Rod{Start: start, End: end} }

func (r Rod) String() string { return fmt.Sprintf("Rod(%d-%d)", r.Start, r.End) }
