package mechanism

import (
	"linkage/types"
)

// SetDrivenAngle 将驱动关节转到绝对角 angle(弧度)
// 解析更新: center + R(angle - offset) * (pos0 - center)，不参与数值迭代
func (m *Mechanism) SetDrivenAngle(angle float64) error {
	var driven bool
	for i := range m.joints {
		j := &m.joints[i]
		if j.Center == nil {
			continue
		}
		p, err := j.PositionAt(angle)
		if err != nil {
			return err
		}
		m.SetPosition(i, p)
		driven = true
	}
	if !driven {
		return &types.PreconditionError{Op: "SetDrivenAngle", Msg: "mechanism has no driven joint"}
	}
	return nil
}

// DrivenAngle 驱动关节在初始构型下的绝对角
func (m *Mechanism) DrivenAngle() (float64, error) {
	id, ok := m.DrivenJoint()
	if !ok {
		return 0, &types.PreconditionError{Op: "DrivenAngle", Msg: "mechanism has no driven joint"}
	}
	return m.joints[id].Offset(), nil
}
