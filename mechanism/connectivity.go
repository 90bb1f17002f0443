package mechanism

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// connectivity 生成连接矩阵 A
// 第 i 根连杆对应第 2i、2i+1 行，起点 x/y 列为 +1，终点为 -1，
// 因此 A*pose 一次得到全部 (start - end) 向量
func connectivity(n int, rods []Rod) *mat.Dense {
	if len(rods) == 0 {
		return nil
	}
	a := mat.NewDense(2*len(rods), 2*n, nil)
	for i, rod := range rods {
		if rod.Start == rod.End {
			continue
		}
		a.Set(2*i, 2*rod.Start, 1)
		a.Set(2*i, 2*rod.End, -1)
		a.Set(2*i+1, 2*rod.Start+1, 1)
		a.Set(2*i+1, 2*rod.End+1, -1)
	}
	return a
}

// Connectivity 连接矩阵只读视图
func (m *Mechanism) Connectivity() mat.Matrix {
	if m.conn == nil {
		return nil
	}
	return m.conn
}

// RodVectors 计算给定位姿下每根连杆的 (start - end) 向量
func (m *Mechanism) RodVectors(pose []float64) []r2.Vec {
	if len(pose) != len(m.pose) {
		panic(fmt.Sprintf("pose dimension mismatch: got %d, expected %d", len(pose), len(m.pose)))
	}
	if m.conn == nil {
		return nil
	}
	// l = A * x
	l := mat.NewVecDense(2*len(m.rods), nil)
	l.MulVec(m.conn, mat.NewVecDense(len(pose), pose))
	// 按 (m x 2) 重排
	vs := make([]r2.Vec, len(m.rods))
	for i := range vs {
		vs[i] = r2.Vec{X: l.AtVec(2 * i), Y: l.AtVec(2*i + 1)}
	}
	return vs
}

// ComputeRodVectors 当前位姿下的连杆向量
func (m *Mechanism) ComputeRodVectors() []r2.Vec { return m.RodVectors(m.pose) }

// ComputeRodLengths 连杆向量的欧氏范数
func (m *Mechanism) ComputeRodLengths(vectors []r2.Vec) []float64 {
	ls := make([]float64, len(vectors))
	for i, v := range vectors {
		ls[i] = r2.Norm(v)
	}
	return ls
}

// RodLengths 当前位姿下的杆长
func (m *Mechanism) RodLengths() []float64 { return m.ComputeRodLengths(m.ComputeRodVectors()) }

// ReferenceLengths 初始构型下的杆长(约束目标)
func (m *Mechanism) ReferenceLengths() []float64 { return append([]float64(nil), m.refs...) }
