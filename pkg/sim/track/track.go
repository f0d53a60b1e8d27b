// Package track provides the geometry of a closed race track.
//
// A Track is an arc length parameterized closed curve. Positions are given as
// arc length s in [0, Length()); all sampling functions are periodic in Length().
package track

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/quizrace/pkg/model"
)

const (
	DefaultSamples   = 2048
	DefaultKappaEps  = 1e-6
	splineSubSamples = 32
)

var ErrInvalidTrack = errors.New("invalid track")

type (
	Track struct {
		name      string
		length    float64
		numLanes  int
		laneWidth float64
		kappaEps  float64
		samples   int
		// pts[i] is the centerline position at arc length i*ds
		pts []Vec2
		ds  float64
	}
	Option  func(*Track)
	builder func(n int) ([]Vec2, float64, error)
)

func WithName(name string) Option {
	return func(t *Track) {
		t.name = name
	}
}

// WithKappaEps sets the floor applied by Curvature
func WithKappaEps(eps float64) Option {
	return func(t *Track) {
		if eps > 0 {
			t.kappaEps = eps
		}
	}
}

// WithSamples sets the resolution of the arc length table
func WithSamples(n int) Option {
	return func(t *Track) {
		if n > 0 {
			t.samples = n
		}
	}
}

// NewTrack creates a track from a closed list of control points.
// The centerline is a closed Catmull-Rom spline through the points.
//
//nolint:whitespace // editor/linter issue
func NewTrack(
	ctrl []Vec2, numLanes int, laneWidth float64, opts ...Option,
) (*Track, error) {
	if len(ctrl) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 control points, got %d",
			ErrInvalidTrack, len(ctrl))
	}
	return newTrack(numLanes, laneWidth, func(n int) ([]Vec2, float64, error) {
		return resample(catmullRom(ctrl, splineSubSamples), n)
	}, opts...)
}

// NewOval creates a stadium shaped track: two straights joined by half circles.
// A straight of 0 yields a circle.
//
//nolint:whitespace // editor/linter issue
func NewOval(
	straight, radius float64, numLanes int, laneWidth float64, opts ...Option,
) (*Track, error) {
	if radius <= 0 || straight < 0 {
		return nil, fmt.Errorf("%w: oval needs radius > 0 and straight >= 0",
			ErrInvalidTrack)
	}
	length := 2*straight + 2*math.Pi*radius
	return newTrack(numLanes, laneWidth, func(n int) ([]Vec2, float64, error) {
		pts := make([]Vec2, n)
		for i := range pts {
			pts[i] = ovalPos(float64(i)*length/float64(n), straight, radius)
		}
		return pts, length, nil
	}, opts...)
}

//nolint:whitespace // editor/linter issue
func newTrack(
	numLanes int, laneWidth float64, build builder, opts ...Option,
) (*Track, error) {
	if numLanes <= 0 {
		return nil, fmt.Errorf("%w: number of lanes must be positive, got %d",
			ErrInvalidTrack, numLanes)
	}
	if laneWidth <= 0 {
		return nil, fmt.Errorf("%w: lane width must be positive, got %v",
			ErrInvalidTrack, laneWidth)
	}
	t := &Track{
		numLanes:  numLanes,
		laneWidth: laneWidth,
		kappaEps:  DefaultKappaEps,
		samples:   DefaultSamples,
	}
	for _, opt := range opts {
		opt(t)
	}
	pts, length, err := build(t.samples)
	if err != nil {
		return nil, err
	}
	if !(length > 0) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("%w: track length must be positive, got %v",
			ErrInvalidTrack, length)
	}
	t.pts = pts
	t.length = length
	t.ds = length / float64(len(pts))
	return t, nil
}

func (t *Track) Name() string       { return t.name }
func (t *Track) Length() float64    { return t.length }
func (t *Track) NumLanes() int      { return t.numLanes }
func (t *Track) LaneWidth() float64 { return t.laneWidth }
func (t *Track) TotalWidth() float64 {
	return float64(t.numLanes) * t.laneWidth
}

// PosAt returns the centerline position at arc length s
func (t *Track) PosAt(s float64) Vec2 {
	f := Wrap(s, t.length) / t.ds
	i := int(f)
	n := len(t.pts)
	if i >= n {
		i = n - 1
	}
	return t.pts[i].Lerp(t.pts[(i+1)%n], f-float64(i))
}

// TangentAt returns the unit direction of travel at arc length s
func (t *Track) TangentAt(s float64) Vec2 {
	return t.PosAt(s + t.ds).Sub(t.PosAt(s - t.ds)).Norm()
}

// NormalAt returns the unit normal at s, the tangent rotated by +90 degrees.
// Positive lane offsets point along this normal.
func (t *Track) NormalAt(s float64) Vec2 {
	return t.TangentAt(s).Perp()
}

// HeadingAt returns the angle of the tangent in radians
func (t *Track) HeadingAt(s float64) float64 {
	tan := t.TangentAt(s)
	return math.Atan2(tan.Y, tan.X)
}

// Curvature is the finite difference of the tangent, floored by the kappa epsilon.
func (t *Track) Curvature(s float64) float64 {
	h := t.ds
	k := t.TangentAt(s+h).Sub(t.TangentAt(s-h)).Len() / (2 * h)
	return math.Max(k, t.kappaEps)
}

// LaneOffset returns the signed lateral distance of a lane center from the centerline.
// Lane 0 has the most negative offset. Panics if lane is out of range.
func (t *Track) LaneOffset(lane int) float64 {
	t.MustLane(lane)
	return (float64(lane) - float64(t.numLanes-1)/2) * t.laneWidth
}

// MustLane panics if lane is not a valid lane index.
func (t *Track) MustLane(lane int) {
	if lane < 0 || lane >= t.numLanes {
		panic(fmt.Sprintf("lane index %d out of range [0,%d)", lane, t.numLanes))
	}
}

func (t *Track) ValidLane(lane int) bool {
	return lane >= 0 && lane < t.numLanes
}

// LanePosAt returns the position at s shifted laterally by offset
func (t *Track) LanePosAt(s, offset float64) Vec2 {
	return t.PosAt(s).Add(t.NormalAt(s).Scale(offset))
}

// Info scans the track for its maximum curvature
func (t *Track) Info() model.TrackInfo {
	ret := model.TrackInfo{
		Name:      t.name,
		Length:    t.length,
		Lanes:     t.numLanes,
		LaneWidth: t.laneWidth,
	}
	idx := lo.Range(len(t.pts))
	apex := lo.MaxBy(idx, func(a, b int) bool {
		return t.Curvature(float64(a)*t.ds) > t.Curvature(float64(b)*t.ds)
	})
	ret.ApexPos = float64(apex) * t.ds
	ret.MaxCurvature = t.Curvature(ret.ApexPos)
	return ret
}

func ovalPos(u, straight, radius float64) Vec2 {
	halfArc := math.Pi * radius
	switch {
	case u < straight:
		// bottom straight, heading +x
		return Vec2{u - straight/2, -radius}
	case u < straight+halfArc:
		a := (u-straight)/radius - math.Pi/2
		return Vec2{straight/2 + radius*math.Cos(a), radius * math.Sin(a)}
	case u < 2*straight+halfArc:
		// top straight, heading -x
		return Vec2{straight/2 - (u - straight - halfArc), radius}
	default:
		a := (u-2*straight-halfArc)/radius + math.Pi/2
		return Vec2{-straight/2 + radius*math.Cos(a), radius * math.Sin(a)}
	}
}

// catmullRom samples a closed uniform Catmull-Rom spline through ctrl
func catmullRom(ctrl []Vec2, sub int) []Vec2 {
	n := len(ctrl)
	ret := make([]Vec2, 0, n*sub)
	for i := range n {
		p0, p1 := ctrl[(i-1+n)%n], ctrl[i]
		p2, p3 := ctrl[(i+1)%n], ctrl[(i+2)%n]
		for j := range sub {
			u := float64(j) / float64(sub)
			u2, u3 := u*u, u*u*u
			ret = append(ret, Vec2{
				X: 0.5 * (2*p1.X + (-p0.X+p2.X)*u +
					(2*p0.X-5*p1.X+4*p2.X-p3.X)*u2 + (-p0.X+3*p1.X-3*p2.X+p3.X)*u3),
				Y: 0.5 * (2*p1.Y + (-p0.Y+p2.Y)*u +
					(2*p0.Y-5*p1.Y+4*p2.Y-p3.Y)*u2 + (-p0.Y+3*p1.Y-3*p2.Y+p3.Y)*u3),
			})
		}
	}
	return ret
}

// resample converts a closed polyline into n points equally spaced by arc length
func resample(poly []Vec2, n int) ([]Vec2, float64, error) {
	m := len(poly)
	cum := make([]float64, m+1)
	for i := range m {
		cum[i+1] = cum[i] + poly[(i+1)%m].Sub(poly[i]).Len()
	}
	length := cum[m]
	if !(length > 0) {
		return nil, 0, fmt.Errorf("%w: control points span no distance", ErrInvalidTrack)
	}
	ret := make([]Vec2, n)
	seg := 0
	for i := range n {
		target := float64(i) * length / float64(n)
		for seg < m-1 && cum[seg+1] < target {
			seg++
		}
		segLen := cum[seg+1] - cum[seg]
		f := 0.0
		if segLen > 0 {
			f = (target - cum[seg]) / segLen
		}
		ret[i] = poly[seg].Lerp(poly[(seg+1)%m], f)
	}
	return ret, length, nil
}
