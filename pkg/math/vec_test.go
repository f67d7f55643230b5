package math

import (
	"testing"
)

func TestVec2Distance(t *testing.T) {
	tests := []struct {
		name string
		a, b Vec2
		want float32
	}{
		{"same point", Vec2{4, 4}, Vec2{4, 4}, 0},
		{"3-4-5", Vec2{1, 2}, Vec2{4, 6}, 5},
		{"symmetric", Vec2{4, 6}, Vec2{1, 2}, 5},
		{"horizontal pinch", Vec2{100, 100}, Vec2{250, 100}, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Distance(tt.b); got != tt.want {
				t.Errorf("Vec2.Distance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestBox3(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}

	b = b.ExpandByPoint(Vec3{-1, -2, -3}).ExpandByPoint(Vec3{1, 2, 3})
	if b.IsEmpty() {
		t.Fatal("expanded box should not be empty")
	}
	if got := b.Center(); got != (Vec3{}) {
		t.Errorf("Box3.Center() = %v, want origin", got)
	}
	if got := b.Volume(); got != 48 {
		t.Errorf("Box3.Volume() = %v, want 48", got)
	}
	if got := b.DistanceToPoint(Vec3{4, 0, 0}); got != 3 {
		t.Errorf("Box3.DistanceToPoint() = %v, want 3", got)
	}
	if got := b.Union(EmptyBox3()); got != b {
		t.Errorf("Union with empty box changed the box: %v", got)
	}
}
