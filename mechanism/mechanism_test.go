package mechanism

import (
	"errors"
	"linkage/types"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// newChain 三关节参考机构
// p0=(0,0) 固定, p1=(10,35) 自由, p2=(-25,10) 绕 (-30,0) 旋转
func newChain(t *testing.T) *Mechanism {
	t.Helper()
	joints := []Joint{
		NewPinned("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0}),
	}
	rods := []Rod{NewRod(0, 1), NewRod(1, 2)}
	m, err := New(joints, rods)
	if err != nil {
		t.Fatalf("创建机构失败: %v", err)
	}
	return m
}

func TestConnectivityMatrix(t *testing.T) {
	m := newChain(t)
	a := m.Connectivity()
	r, c := a.Dims()
	if r != 4 || c != 6 {
		t.Fatalf("连接矩阵尺寸错误: %dx%d", r, c)
	}
	expected := [][]float64{
		{1, 0, -1, 0, 0, 0},
		{0, 1, 0, -1, 0, 0},
		{0, 0, 1, 0, -1, 0},
		{0, 0, 0, 1, 0, -1},
	}
	for i := range expected {
		for j := range expected[i] {
			if a.At(i, j) != expected[i][j] {
				t.Errorf("A[%d][%d] got %v, expected %v", i, j, a.At(i, j), expected[i][j])
			}
		}
	}
}

func TestRodLengthsInitial(t *testing.T) {
	m := newChain(t)
	angle := math.Atan(10.0 / 5.0)
	if err := m.SetDrivenAngle(angle); err != nil {
		t.Fatalf("SetDrivenAngle: %v", err)
	}
	vs := m.ComputeRodVectors()
	if r2.Norm(r2.Sub(vs[0], r2.Vec{X: -10, Y: -35})) > 1e-9 || r2.Norm(r2.Sub(vs[1], r2.Vec{X: 35, Y: 25})) > 1e-9 {
		t.Errorf("连杆向量错误: %v", vs)
	}
	got := m.ComputeRodLengths(vs)
	expected := []float64{36.40054945, 43.01162634}
	for i := range expected {
		if math.Abs(got[i]-expected[i]) > 1e-5 {
			t.Errorf("rod %d length got %.8f, expected %.8f", i, got[i], expected[i])
		}
	}
}

func TestRodLengthsRotated(t *testing.T) {
	m := newChain(t)
	angle := math.Atan(10.0/5.0) + 10*math.Pi/180
	if err := m.SetDrivenAngle(angle); err != nil {
		t.Fatalf("SetDrivenAngle: %v", err)
	}
	got := m.RodLengths()
	if math.Abs(got[0]-36.40054945) > 1e-5 {
		t.Errorf("rod 0 length got %.8f, expected 36.40054945", got[0])
	}
	if math.Abs(got[1]-44.1005) > 1e-3 {
		t.Errorf("rod 1 length got %.8f, expected ~44.1005", got[1])
	}
	// 参考杆长不随位姿变化
	refs := m.ReferenceLengths()
	if math.Abs(refs[1]-43.01162634) > 1e-5 {
		t.Errorf("reference length changed: %v", refs)
	}
}

func TestSetDrivenAngleDeterministic(t *testing.T) {
	m := newChain(t)
	angle := 1.234
	if err := m.SetDrivenAngle(angle); err != nil {
		t.Fatal(err)
	}
	first := m.Position(2)
	// 打乱历史后再次设置
	for _, a := range []float64{-3, 0.5, 7, angle + math.Pi} {
		if err := m.SetDrivenAngle(a); err != nil {
			t.Fatal(err)
		}
	}
	m.SetPosition(1, r2.Vec{X: 100, Y: 100})
	if err := m.SetDrivenAngle(angle); err != nil {
		t.Fatal(err)
	}
	if got := m.Position(2); got != first {
		t.Errorf("driven joint not deterministic: %v != %v", got, first)
	}
	// 半径保持不变
	j := m.Joint(2)
	if d := r2.Norm(r2.Sub(first, *j.Center)); math.Abs(d-j.Radius()) > 1e-12 {
		t.Errorf("radius got %v, expected %v", d, j.Radius())
	}
	expected := r2.Vec{X: -30 + j.Radius()*math.Cos(angle), Y: j.Radius() * math.Sin(angle)}
	if r2.Norm(r2.Sub(first, expected)) > 1e-12 {
		t.Errorf("position got %v, expected %v", first, expected)
	}
}

func TestSetDrivenAngleWithoutCenter(t *testing.T) {
	j := NewJoint("free", 1, 2)
	var pe *types.PreconditionError
	if _, err := j.PositionAt(0); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
	m, err := New([]Joint{NewPinned("a", 0, 0), NewJoint("b", 1, 0)}, []Rod{NewRod(0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if err := m.SetDrivenAngle(1); !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
}

func TestNewRejectsUnknownJoint(t *testing.T) {
	_, err := New([]Joint{NewPinned("a", 0, 0)}, []Rod{NewRod(0, 3)})
	var pe *types.PreconditionError
	if !errors.As(err, &pe) {
		t.Errorf("expected PreconditionError, got %v", err)
	}
}

func TestCloneIndependent(t *testing.T) {
	m := newChain(t)
	c := m.Clone()
	c.SetPosition(1, r2.Vec{X: -1, Y: -1})
	if m.Position(1) != (r2.Vec{X: 10, Y: 35}) {
		t.Errorf("clone aliases original pose")
	}
	if err := c.SetDrivenAngle(0); err != nil {
		t.Fatal(err)
	}
	if m.Position(2) != (r2.Vec{X: -25, Y: 10}) {
		t.Errorf("clone aliases original driven joint")
	}
	c.Reset()
	if c.Position(1) != (r2.Vec{X: 10, Y: 35}) {
		t.Errorf("reset got %v", c.Position(1))
	}
}

func TestJointsCopyCenter(t *testing.T) {
	m := newChain(t)
	*m.Joints()[2].Center = r2.Vec{X: 1000, Y: 1000}
	j := m.Joint(2)
	*j.Center = r2.Vec{X: -1000, Y: 0}
	if c := m.Joint(2).Center; *c != (r2.Vec{X: -30, Y: 0}) {
		t.Errorf("center got %v, expected (-30, 0)", *c)
	}
	if err := m.SetDrivenAngle(1); err != nil {
		t.Fatal(err)
	}
	r := math.Hypot(5, 10)
	expected := r2.Vec{X: -30 + r*math.Cos(1), Y: r * math.Sin(1)}
	if p := m.Position(2); r2.Norm(r2.Sub(p, expected)) > 1e-12 {
		t.Errorf("driven joint got %v, expected %v", p, expected)
	}
}

func TestCloneWithoutRods(t *testing.T) {
	m, err := New([]Joint{NewPinned("p0", 0, 0)}, nil)
	if err != nil {
		t.Fatalf("创建机构失败: %v", err)
	}
	c := m.Clone()
	if c.Connectivity() != nil || c.NumRods() != 0 || c.Position(0) != (r2.Vec{}) {
		t.Errorf("clone got %v", c)
	}
}

func TestFreeJoints(t *testing.T) {
	m := newChain(t)
	free := m.FreeJoints()
	if len(free) != 1 || free[0] != 1 {
		t.Errorf("free joints got %v", free)
	}
	if id, ok := m.DrivenJoint(); !ok || id != 2 {
		t.Errorf("driven joint got %d %v", id, ok)
	}
	a, err := m.DrivenAngle()
	if err != nil || math.Abs(a-math.Atan2(10, 5)) > 1e-15 {
		t.Errorf("driven angle got %v %v", a, err)
	}
}
