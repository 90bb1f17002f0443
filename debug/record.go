package debug

import (
	"encoding/json"
	"io"
	"linkage/types"
	"math"

	"github.com/rs/zerolog/log"
)

// Record 记录扫描历史
type Record struct {
	Joints []string    // 关节名
	Kinds  []string    // 关节类型
	Rods   [][2]int    // 连杆端点
	Angle  []float64   // 驱动角列(度)
	X      [][]float64 // 关节 x 坐标 [帧][关节]
	Y      [][]float64 // 关节 y 坐标 [帧][关节]
	Errors []string    // 失败记录
}

// Init 初始化
func (list *Record) Init(top types.Topology) {
	n := top.NumJoints()
	list.Joints = make([]string, n)
	list.Kinds = make([]string, n)
	for i := 0; i < n; i++ {
		list.Joints[i] = top.JointName(i)
		list.Kinds[i] = top.JointKind(i).String()
	}
	list.Rods = make([][2]int, top.NumRods())
	for i := range list.Rods {
		s, e := top.RodEnds(i)
		list.Rods[i] = [2]int{s, e}
	}
	list.Angle, list.X, list.Y, list.Errors = nil, nil, nil, nil
}

func (Record) IsDebug() bool    { return true }
func (Record) SetDebug(is bool) {}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

// Update 记录数据
func (list *Record) Update(frame *types.Frame) {
	list.Angle = append(list.Angle, frame.Angle*180/math.Pi)
	xs := make([]float64, len(frame.Joints))
	ys := make([]float64, len(frame.Joints))
	for i, p := range frame.Joints {
		xs[i], ys[i] = p.X, p.Y
	}
	list.X = append(list.X, xs)
	list.Y = append(list.Y, ys)
}

// Len 已记录帧数
func (list *Record) Len() int { return len(list.Angle) }

func (list *Record) Error(err error) {
	list.Errors = append(list.Errors, err.Error())
	log.Warn().Err(err).Msg("debug")
}
