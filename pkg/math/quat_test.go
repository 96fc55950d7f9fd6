package math

import (
	"math"
	"testing"
)

func TestQuatIdentity(t *testing.T) {
	q := QuatIdentity()
	if !q.IsIdentity() {
		t.Errorf("Identity quaternion should be (0,0,0,1), got (%v,%v,%v,%v)", q.X, q.Y, q.Z, q.W)
	}
}

func TestQuatNormalize(t *testing.T) {
	n := Quat{X: 1, Y: 2, Z: 3, W: 4}.Normalize()

	length := math.Sqrt(float64(n.X*n.X + n.Y*n.Y + n.Z*n.Z + n.W*n.W))
	if math.Abs(length-1.0) > 0.0001 {
		t.Errorf("Normalized quaternion length should be 1, got %v", length)
	}
}

func TestQuatRotateMatchesMatrix(t *testing.T) {
	q := QuatFromEuler(30, 45, 10)
	v := Vec3{1, 2, 3}

	byQuat := q.Rotate(v)
	byMat := q.ToMat4().TransformVec3(v)
	if !byQuat.ApproxEqual(byMat, 0.001) {
		t.Errorf("Rotate = %v, ToMat4 = %v", byQuat, byMat)
	}
}

func TestQuatConjugateUndoes(t *testing.T) {
	q := QuatFromAxisAngle(Vec3{Y: 1}, 1.2)
	v := Vec3{4, 0, -1}

	got := q.Conjugate().Rotate(q.Rotate(v))
	if !got.ApproxEqual(v, 0.001) {
		t.Errorf("conjugate round trip: got %v, want %v", got, v)
	}
}

func TestQuatMulComposes(t *testing.T) {
	a := QuatFromAxisAngle(Vec3{Y: 1}, float32(math.Pi/4))
	b := a.Mul(a)
	got := b.Rotate(Vec3{1, 0, 0})

	// Two 45 degree turns about Y take +X to -Z.
	if !got.ApproxEqual(Vec3{0, 0, -1}, 0.001) {
		t.Errorf("composed rotation: got %v, want (0, 0, -1)", got)
	}
}
