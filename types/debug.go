package types

import "io"

// Debug 调试接口
type Debug interface {
	Init(top Topology)
	IsDebug() bool
	SetDebug(is bool)
	Update(frame *Frame)
	Render(w io.Writer) error
	Error(err error)
}
