package mechanism

import (
	"fmt"
	"linkage/types"
	"strings"
)

// Validated 通过校验的机构，只能由 Validate 生成
type Validated struct {
	m *Mechanism
}

// Mechanism 底层机构
func (v *Validated) Mechanism() *Mechanism { return v.m }

// Validate 校验拓扑和自由度，成功后返回 Validated
// 只读，不修改机构
func (m *Mechanism) Validate() (*Validated, error) {
	checks := []func() *types.ConfigurationError{
		m.checkDriven,
		m.checkPinned,
		m.checkKinds,
		m.checkSelfLoops,
		m.checkConnected,
		m.checkMobility,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return nil, err
		}
	}
	return &Validated{m: m}, nil
}

// checkDriven 必须恰好有一个驱动关节
func (m *Mechanism) checkDriven() *types.ConfigurationError {
	var ids []types.JointID
	for i := range m.joints {
		if m.joints[i].Center != nil {
			ids = append(ids, i)
		}
	}
	if len(ids) != 1 {
		return &types.ConfigurationError{Msg: "must have exactly one driven joint", Joints: ids}
	}
	return nil
}

// checkPinned 至少一个固定关节
func (m *Mechanism) checkPinned() *types.ConfigurationError {
	for i := range m.joints {
		if m.joints[i].Kind() == types.JointPinned {
			return nil
		}
	}
	return &types.ConfigurationError{Msg: "must have at least one pinned joint"}
}

// checkKinds 驱动关节不能同时固定
func (m *Mechanism) checkKinds() *types.ConfigurationError {
	for i := range m.joints {
		if m.joints[i].Pinned && m.joints[i].Center != nil {
			return &types.ConfigurationError{
				Msg:    fmt.Sprintf("joint %s cannot be both pinned and driven", m.JointName(i)),
				Joints: []types.JointID{i},
			}
		}
	}
	return nil
}

// checkSelfLoops 连杆两端必须是不同关节
func (m *Mechanism) checkSelfLoops() *types.ConfigurationError {
	for i, rod := range m.rods {
		if rod.Start == rod.End {
			return &types.ConfigurationError{
				Msg:    fmt.Sprintf("rod %d connects joint %s to itself", i, m.JointName(rod.Start)),
				Joints: []types.JointID{rod.Start},
			}
		}
	}
	return nil
}

// checkConnected 每个关节至少属于一根连杆
func (m *Mechanism) checkConnected() *types.ConfigurationError {
	degree := m.degrees()
	var ids []types.JointID
	var names []string
	for i, d := range degree {
		if d == 0 {
			ids = append(ids, i)
			names = append(names, m.JointName(i))
		}
	}
	if len(ids) > 0 {
		return &types.ConfigurationError{
			Msg:    fmt.Sprintf("joints not connected to any rod: %s", strings.Join(names, ", ")),
			Joints: ids,
		}
	}
	return nil
}

// checkMobility 自由度必须为 1
func (m *Mechanism) checkMobility() *types.ConfigurationError {
	if dof := m.DegreesOfFreedom(); dof != 1 {
		return types.NewConfigurationError("degree of freedom must be 1, got %d", dof)
	}
	return nil
}

// degrees 每个关节连接的连杆数
func (m *Mechanism) degrees() []int {
	degree := make([]int, len(m.joints))
	for _, rod := range m.rods {
		degree[rod.Start]++
		if rod.End != rod.Start {
			degree[rod.End]++
		}
	}
	return degree
}

// DegreesOfFreedom 平面机构自由度
//
//	3*(links-1) - 2*revolute - driven, links = rods + 1
//
// revolute 按二副等效计数: 每个关节连接的构件数(连杆 + 固定时的机架) 减一。
// 驱动关节所在曲柄不计入构件，由 driven 项扣除输入自由度。
func (m *Mechanism) DegreesOfFreedom() int {
	links := len(m.rods) + 1
	var revolute, driven int
	for i, d := range m.degrees() {
		bodies := d
		if m.joints[i].Pinned {
			bodies++
		}
		if bodies > 0 {
			revolute += bodies - 1
		}
		if m.joints[i].Center != nil {
			driven++
		}
	}
	return 3*(links-1) - 2*revolute - driven
}
