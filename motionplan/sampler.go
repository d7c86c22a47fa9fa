package motionplan

import (
	"math/rand"

	"github.com/golang/geo/r2"

	"go.viam.com/carplan/spatialmath"
)

// Sampler produces the targets a tree grows towards. Every period-th call returns the goal
// exactly; the others are uniform over the bounds with zero heading, since only the position
// of a target is steered for.
type Sampler struct {
	randseed  *rand.Rand
	bounds    r2.Rect
	goal      spatialmath.Pose
	period    int
	countdown int
}

// NewSampler returns a sampler drawing from randseed. A period below one is treated as one,
// which samples only the goal.
func NewSampler(randseed *rand.Rand, bounds r2.Rect, goal spatialmath.Pose, period int) *Sampler {
	if period < 1 {
		period = 1
	}
	return &Sampler{randseed: randseed, bounds: bounds, goal: goal, period: period, countdown: period}
}

// Next returns the next target and whether it is the goal.
func (s *Sampler) Next() (spatialmath.Pose, bool) {
	s.countdown--
	if s.countdown <= 0 {
		s.countdown = s.period
		return s.goal, true
	}
	lo, hi := s.bounds.Lo(), s.bounds.Hi()
	return spatialmath.Pose{
		X: lo.X + s.randseed.Float64()*(hi.X-lo.X),
		Y: lo.Y + s.randseed.Float64()*(hi.Y-lo.Y),
	}, false
}
