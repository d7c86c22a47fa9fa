// Package bicycle implements the kinematic bicycle model of an Ackermann-steered vehicle. A
// vehicle holding a constant steering angle drives along a circle of radius L/tan(steering),
// which lets every step be computed in closed form.
package bicycle

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/carplan/spatialmath"
	"go.viam.com/carplan/utils"
)

const (
	// DefaultWheelbase is the distance in meters between the front and rear axles.
	DefaultWheelbase = 0.325

	// DefaultMaxSteering is the largest steering angle in radians the wheels can reach either way.
	DefaultMaxSteering = 0.2

	// Below this |tan(steering)| the turning radius is treated as infinite and the step is a line.
	straightEpsilon = 1e-9
)

// Model describes a bicycle-model vehicle.
type Model struct {
	Wheelbase   float64 `json:"wheelbase"`
	MaxSteering float64 `json:"max_steering"`
}

// NewModel returns a model with the given wheelbase and steering limit.
func NewModel(wheelbase, maxSteering float64) (*Model, error) {
	m := &Model{Wheelbase: wheelbase, MaxSteering: maxSteering}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewDefaultModel returns a model of the reference vehicle.
func NewDefaultModel() *Model {
	return &Model{Wheelbase: DefaultWheelbase, MaxSteering: DefaultMaxSteering}
}

// Validate checks that the model can be driven.
func (m *Model) Validate() error {
	if !(m.Wheelbase > 0) || math.IsInf(m.Wheelbase, 0) {
		return errors.Errorf("wheelbase must be positive and finite, got %v", m.Wheelbase)
	}
	if !(m.MaxSteering >= 0) || m.MaxSteering >= math.Pi/2 {
		return errors.Errorf("max steering must be in [0, pi/2), got %v", m.MaxSteering)
	}
	return nil
}

// Advance returns the pose reached by driving length meters from p with the wheels held at
// steering radians. Positive steering turns left (counter-clockwise). The heading of the
// returned pose is not wrapped.
func (m *Model) Advance(p spatialmath.Pose, steering, length float64) spatialmath.Pose {
	tanA := math.Tan(steering)
	if math.Abs(tanA) < straightEpsilon {
		return spatialmath.Pose{
			X:     p.X + length*math.Cos(p.Theta),
			Y:     p.Y + length*math.Sin(p.Theta),
			Theta: p.Theta,
		}
	}
	radius := m.Wheelbase / tanA
	theta := p.Theta + length*tanA/m.Wheelbase
	return spatialmath.Pose{
		X:     p.X + radius*(math.Sin(theta)-math.Sin(p.Theta)),
		Y:     p.Y + radius*(math.Cos(p.Theta)-math.Cos(theta)),
		Theta: theta,
	}
}

// Interpolate returns segments+1 poses spaced evenly along the arc, starting with p itself and
// ending with Advance(p, steering, length). segments below one is treated as one.
func (m *Model) Interpolate(p spatialmath.Pose, steering, length float64, segments int) []spatialmath.Pose {
	segments = utils.MaxInt(segments, 1)
	poses := make([]spatialmath.Pose, 0, segments+1)
	poses = append(poses, p)
	for j := 1; j <= segments; j++ {
		poses = append(poses, m.Advance(p, steering, length*float64(j)/float64(segments)))
	}
	return poses
}

// SteeringCandidates returns n steering angles spread evenly over [-MaxSteering, MaxSteering],
// both limits included. A single candidate is straight ahead. An odd n always contains zero.
func (m *Model) SteeringCandidates(n int) []float64 {
	if n <= 1 {
		return []float64{0}
	}
	candidates := make([]float64, n)
	step := 2 * m.MaxSteering / float64(n-1)
	for k := range candidates {
		candidates[k] = -m.MaxSteering + step*float64(k)
	}
	// keep the centre exact so straight driving takes the closed form line
	if n%2 == 1 {
		candidates[n/2] = 0
	}
	return candidates
}

// TurningRadius returns the signed radius of the circle driven at the given steering angle, or
// +Inf when the steering is straight.
func (m *Model) TurningRadius(steering float64) float64 {
	tanA := math.Tan(steering)
	if math.Abs(tanA) < straightEpsilon {
		return math.Inf(1)
	}
	return m.Wheelbase / tanA
}

// MinTurningRadius is the tightest circle the vehicle can drive.
func (m *Model) MinTurningRadius() float64 {
	return math.Abs(m.TurningRadius(m.MaxSteering))
}
