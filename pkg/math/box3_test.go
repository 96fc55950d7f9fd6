package math

import "testing"

func TestEmptyBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}
	b = b.ExpandByPoint(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("box with one point should not be empty")
	}
	if b.Center() != (Vec3{1, 2, 3}) {
		t.Errorf("single point center = %v", b.Center())
	}
}

func TestBox3Union(t *testing.T) {
	a := Box3{Min: Vec3{0, 0, 0}, Max: Vec3{1, 1, 1}}
	b := Box3{Min: Vec3{2, -1, 0}, Max: Vec3{3, 0, 4}}

	u := a.Union(b)
	if u.Min != (Vec3{0, -1, 0}) || u.Max != (Vec3{3, 1, 4}) {
		t.Errorf("Union = %+v", u)
	}
	if got := a.Union(EmptyBox3()); got != a {
		t.Errorf("union with empty changed box: %+v", got)
	}
	if got := EmptyBox3().Union(a); got != a {
		t.Errorf("empty union box: %+v", got)
	}
}

func TestBox3Transform(t *testing.T) {
	b := Box3{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}
	m := Translate(Vec3{10, 0, 0}).Mul(Scale(Vec3{2, 1, 1}))

	got := b.Transform(m)
	if got.Min != (Vec3{8, -1, -1}) || got.Max != (Vec3{12, 1, 1}) {
		t.Errorf("Transform = %+v", got)
	}
	if got.Size() != (Vec3{4, 2, 2}) {
		t.Errorf("Size = %v", got.Size())
	}
}
