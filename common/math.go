package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Aabb is an axis-aligned bounding box. An empty box has Min > Max on every axis so that
// the union with any box yields that box.
type Aabb struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAabb returns the identity element of Union.
//
// Returns:
//   - Aabb: a box with +Inf minimum and -Inf maximum
func EmptyAabb() Aabb {
	inf := float32(math.Inf(1))
	return Aabb{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (b Aabb) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Union returns the smallest box enclosing both b and o.
//
// Parameters:
//   - o: the box to merge with b
//
// Returns:
//   - Aabb: the enclosing box
func (b Aabb) Union(o Aabb) Aabb {
	return Aabb{
		Min: mgl32.Vec3{min(b.Min[0], o.Min[0]), min(b.Min[1], o.Min[1]), min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max(b.Max[0], o.Max[0]), max(b.Max[1], o.Max[1]), max(b.Max[2], o.Max[2])},
	}
}

// Extend returns b grown to contain p.
func (b Aabb) Extend(p mgl32.Vec3) Aabb {
	return b.Union(Aabb{Min: p, Max: p})
}

// Center returns the midpoint of the box.
func (b Aabb) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Transform returns the box enclosing all eight corners of b after applying m.
// An empty box stays empty.
//
// Parameters:
//   - m: the affine transform applied to each corner
//
// Returns:
//   - Aabb: the transformed enclosing box
func (b Aabb) Transform(m mgl32.Mat4) Aabb {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAabb()
	for i := 0; i < 8; i++ {
		corner := mgl32.Vec4{b.Min[0], b.Min[1], b.Min[2], 1}
		if i&1 != 0 {
			corner[0] = b.Max[0]
		}
		if i&2 != 0 {
			corner[1] = b.Max[1]
		}
		if i&4 != 0 {
			corner[2] = b.Max[2]
		}
		out = out.Extend(m.Mul4x1(corner).Vec3())
	}
	return out
}

// ComposeTRS builds the matrix T * R * S from a translation, a unit rotation quaternion and a scale.
//
// Parameters:
//   - t: translation
//   - r: rotation quaternion
//   - s: per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed column-major matrix
func ComposeTRS(t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(r.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

// Mat4FromArray converts a column-major array of any float width to an mgl32.Mat4.
func Mat4FromArray[T ~float32 | ~float64](a [16]T) mgl32.Mat4 {
	var m mgl32.Mat4
	for i, v := range a {
		m[i] = float32(v)
	}
	return m
}

// Vec3FromSlice converts the first three elements of s to an mgl32.Vec3.
// The second return value is false when s is shorter than three elements.
func Vec3FromSlice[T ~float32 | ~float64](s []T) (mgl32.Vec3, bool) {
	if len(s) < 3 {
		return mgl32.Vec3{}, false
	}
	return mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])}, true
}
