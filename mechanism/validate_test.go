package mechanism

import (
	"errors"
	"linkage/types"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func mustNew(t *testing.T, joints []Joint, rods []Rod) *Mechanism {
	t.Helper()
	m, err := New(joints, rods)
	if err != nil {
		t.Fatalf("创建机构失败: %v", err)
	}
	return m
}

func expectConfigurationError(t *testing.T, m *Mechanism, contains string) *types.ConfigurationError {
	t.Helper()
	v, err := m.Validate()
	if v != nil {
		t.Fatalf("expected validation to fail")
	}
	var ce *types.ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if !strings.Contains(ce.Error(), contains) {
		t.Errorf("error %q does not contain %q", ce.Error(), contains)
	}
	return ce
}

func TestValidateChain(t *testing.T) {
	m := newChain(t)
	if dof := m.DegreesOfFreedom(); dof != 1 {
		t.Errorf("DoF got %d, expected 1", dof)
	}
	v, err := m.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v.Mechanism() != m {
		t.Errorf("validated handle does not wrap the mechanism")
	}
}

func TestValidateTwoLoop(t *testing.T) {
	m := mustNew(t, []Joint{
		NewDriven("d", 10, 0, r2.Vec{}),
		NewPinned("a", 40, -10),
		NewPinned("b", 70, 0),
		NewJoint("p1", 20, 30),
		NewJoint("p2", 50, 40),
	}, []Rod{NewRod(0, 3), NewRod(1, 3), NewRod(3, 4), NewRod(2, 4)})
	if _, err := m.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateNoDriven(t *testing.T) {
	m := mustNew(t, []Joint{
		NewPinned("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewJoint("p2", -25, 10),
	}, []Rod{NewRod(0, 1), NewRod(1, 2)})
	expectConfigurationError(t, m, "must have exactly one driven joint")
}

func TestValidateTwoDriven(t *testing.T) {
	m := mustNew(t, []Joint{
		NewPinned("p0", 0, 0),
		NewDriven("p1", 10, 35, r2.Vec{X: 10, Y: 30}),
		NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0}),
	}, []Rod{NewRod(0, 1), NewRod(1, 2)})
	ce := expectConfigurationError(t, m, "must have exactly one driven joint")
	if len(ce.Joints) != 2 {
		t.Errorf("expected both driven joints reported, got %v", ce.Joints)
	}
}

func TestValidateNoPinned(t *testing.T) {
	m := mustNew(t, []Joint{
		NewJoint("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0}),
	}, []Rod{NewRod(0, 1), NewRod(1, 2)})
	expectConfigurationError(t, m, "must have at least one pinned joint")
}

func TestValidateDisconnected(t *testing.T) {
	m := mustNew(t, []Joint{
		NewPinned("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0}),
		NewJoint("lonely", 5, 5),
	}, []Rod{NewRod(0, 1), NewRod(1, 2)})
	ce := expectConfigurationError(t, m, "lonely")
	if len(ce.Joints) != 1 || ce.Joints[0] != 3 {
		t.Errorf("unconnected joints got %v", ce.Joints)
	}
}

func TestValidateMobility(t *testing.T) {
	m := mustNew(t, []Joint{
		NewPinned("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewJoint("p2", 0, 50),
		NewDriven("p3", -25, 10, r2.Vec{X: -30, Y: 0}),
	}, []Rod{NewRod(0, 1), NewRod(1, 2), NewRod(2, 3)})
	if dof := m.DegreesOfFreedom(); dof != 2 {
		t.Errorf("DoF got %d, expected 2", dof)
	}
	expectConfigurationError(t, m, "got 2")
}

func TestValidatePinnedAndDriven(t *testing.T) {
	j := NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0})
	j.Pinned = true
	m := mustNew(t, []Joint{NewPinned("p0", 0, 0), NewJoint("p1", 10, 35), j},
		[]Rod{NewRod(0, 1), NewRod(1, 2)})
	expectConfigurationError(t, m, "both pinned and driven")
}

func TestValidateDoesNotMutate(t *testing.T) {
	m := mustNew(t, []Joint{
		NewJoint("p0", 0, 0),
		NewJoint("p1", 10, 35),
		NewDriven("p2", -25, 10, r2.Vec{X: -30, Y: 0}),
	}, []Rod{NewRod(0, 1), NewRod(1, 2)})
	before := m.Pose()
	m.Validate()
	after := m.Pose()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("Validate changed pose: %v -> %v", before, after)
		}
	}
}
