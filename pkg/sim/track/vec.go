package track

import "math"

type Vec2 struct {
	X, Y float64
}

func (a Vec2) Add(b Vec2) Vec2             { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2             { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(f float64) Vec2        { return Vec2{a.X * f, a.Y * f} }
func (a Vec2) Len() float64                { return math.Hypot(a.X, a.Y) }
func (a Vec2) Perp() Vec2                  { return Vec2{-a.Y, a.X} }
func (a Vec2) Lerp(b Vec2, t float64) Vec2 { return a.Add(b.Sub(a).Scale(t)) }

// Norm returns the unit vector of a, the zero vector stays zero
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return a
	}
	return a.Scale(1 / l)
}
