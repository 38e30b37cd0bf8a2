// Package geom provides the small amount of planar vector math the agent core
// needs. Y is up; all steering happens in the X/Z plane.
package geom

import "math"

// Vec3 is a point or direction in world space.
type Vec3 struct {
	X float64 `mapstructure:"x" yaml:"x"`
	Y float64 `mapstructure:"y" yaml:"y"`
	Z float64 `mapstructure:"z" yaml:"z"`
}

// V returns the vector (x, y, z).
func V(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Len returns the euclidean length of v.
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Flat projects v onto the ground plane.
func (v Vec3) Flat() Vec3 { return Vec3{X: v.X, Z: v.Z} }

// Normalize returns the unit vector in the direction of v.
//
// Postcondition: returns the zero vector when v has (near) zero length.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Dist returns the distance between v and o on the ground plane.
func (v Vec3) Dist(o Vec3) float64 { return o.Sub(v).Flat().Len() }

// Left returns v rotated 90 degrees counter-clockwise on the ground plane.
func (v Vec3) Left() Vec3 { return Vec3{X: -v.Z, Z: v.X} }

// RotateY rotates v counter-clockwise by deg degrees on the ground plane.
func (v Vec3) RotateY(deg float64) Vec3 {
	r := deg * math.Pi / 180
	s, c := math.Sincos(r)
	return Vec3{X: v.X*c - v.Z*s, Y: v.Y, Z: v.X*s + v.Z*c}
}

// FromYaw returns the unit ground-plane direction at yaw degrees, measured
// counter-clockwise from +X.
func FromYaw(deg float64) Vec3 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vec3{X: c, Z: s}
}

// Yaw returns the ground-plane heading of v in degrees in (-180, 180].
func (v Vec3) Yaw() float64 {
	return math.Atan2(v.Z, v.X) * 180 / math.Pi
}

// AngleBetween returns the unsigned ground-plane angle between a and b in
// degrees, in [0, 180].
//
// Postcondition: returns 0 if either vector has zero length.
func AngleBetween(a, b Vec3) float64 {
	fa, fb := a.Flat().Normalize(), b.Flat().Normalize()
	if fa == (Vec3{}) || fb == (Vec3{}) {
		return 0
	}
	dot := fa.X*fb.X + fa.Z*fb.Z
	dot = math.Max(-1, math.Min(1, dot))
	return math.Acos(dot) * 180 / math.Pi
}

// DeltaAngle returns the signed shortest rotation in degrees from heading
// from to heading to, in (-180, 180].
func DeltaAngle(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}
