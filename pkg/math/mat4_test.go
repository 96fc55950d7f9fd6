package math

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if m[0] != 1 || m[5] != 1 || m[10] != 1 || m[15] != 1 {
		t.Error("Identity diagonal should be 1")
	}
	if m[1] != 0 || m[4] != 0 {
		t.Error("Identity off-diagonal should be 0")
	}
}

func TestMulIdentity(t *testing.T) {
	m := Translate(Vec3{1, 2, 3})
	result := m.Mul(Identity())

	for i := 0; i < 16; i++ {
		if result[i] != m[i] {
			t.Errorf("M * I should equal M, element %d: got %f, want %f", i, result[i], m[i])
		}
	}
}

func TestTranslate(t *testing.T) {
	m := Translate(Vec3{5, 10, 15})
	if got := m.Translation(); got != (Vec3{5, 10, 15}) {
		t.Errorf("Translation() = %v, want (5, 10, 15)", got)
	}
}

func TestTransformVec3Scale(t *testing.T) {
	m := Scale(Vec3{2, 2, 2})
	got := m.TransformVec3(Vec3{1, 2, 3})
	want := Vec3{2, 4, 6}
	if got != want {
		t.Errorf("TransformVec3 with scale: got %v, want %v", got, want)
	}
}

func TestFromTRS(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{Y: 1}, float32(math.Pi/2))
	m := FromTRS(Vec3{10, 0, 0}, rot, Vec3{2, 2, 2})

	// Scale first, then rotate 90 degrees about Y, then translate.
	got := m.TransformVec3(Vec3{1, 0, 0})
	want := Vec3{10, 0, -2}
	if !got.ApproxEqual(want, 0.001) {
		t.Errorf("FromTRS point: got %v, want %v", got, want)
	}
}

func TestInverse(t *testing.T) {
	rot := QuatFromAxisAngle(Vec3{X: 1}, 0.7)
	m := FromTRS(Vec3{3, -4, 5}, rot, Vec3{2, 0.5, 1})
	p := Vec3{1, 2, 3}

	back := m.Inverse().TransformVec3(m.TransformVec3(p))
	if !back.ApproxEqual(p, 0.001) {
		t.Errorf("Inverse round trip: got %v, want %v", back, p)
	}
}

func TestInverseSingular(t *testing.T) {
	m := Scale(Vec3{0, 1, 1})
	if m.Inverse() != Identity() {
		t.Error("singular matrix should invert to identity")
	}
}

func TestPerspective(t *testing.T) {
	m := Perspective(float32(math.Pi/4), 1, 0.1, 100)

	if m[0] == 0 || m[5] == 0 {
		t.Error("Perspective should have non-zero elements")
	}
	if m[15] != 0 {
		t.Errorf("Perspective [15] should be 0, got %f", m[15])
	}
	if m[11] != -1 {
		t.Errorf("Perspective [11] should be -1, got %f", m[11])
	}
}

func TestLookAt(t *testing.T) {
	m := LookAt(Vec3{0, 0, 5}, Vec3{}, Vec3{0, 1, 0})

	// The target ends up straight ahead on -Z in view space.
	got := m.TransformVec3(Vec3{})
	if !got.ApproxEqual(Vec3{0, 0, -5}, 0.001) {
		t.Errorf("LookAt center in view space: got %v, want (0, 0, -5)", got)
	}
}

func TestDecompose(t *testing.T) {
	rot := QuatFromEuler(20, -70, 5)
	m := FromTRS(Vec3{1, 2, 3}, rot, Vec3{0.5, 2, 3})

	tr, r, s := m.Decompose()
	if !tr.ApproxEqual(Vec3{1, 2, 3}, 0.001) {
		t.Errorf("translation = %v", tr)
	}
	if !s.ApproxEqual(Vec3{0.5, 2, 3}, 0.001) {
		t.Errorf("scale = %v", s)
	}
	rebuilt := FromTRS(tr, r, s)
	p := Vec3{-1, 4, 2}
	if !rebuilt.TransformVec3(p).ApproxEqual(m.TransformVec3(p), 0.01) {
		t.Errorf("rebuilt matrix differs: %v vs %v", rebuilt.TransformVec3(p), m.TransformVec3(p))
	}
}
