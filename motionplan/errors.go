package motionplan

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/carplan/spatialmath"
)

var (
	errTreeFull         = errors.New("tree has reached its node capacity")
	errStartInCollision = errors.New("start pose is inside an inflated obstacle")
	errGoalInCollision  = errors.New("goal pose is inside an inflated obstacle")
	errNoSegments       = errors.New("a mission needs at least two waypoints")
)

// NoPathError is returned when a segment runs out of iterations, or out of tree capacity,
// without any node reaching the goal. It carries enough of the search to inspect what went wrong.
type NoPathError struct {
	Start, Goal     spatialmath.Pose
	Iterations      int
	Nodes           int
	ClosestNode     int
	ClosestDistance float64
	CapacityReached bool
	Tree            *Tree
}

func (e *NoPathError) Error() string {
	reason := fmt.Sprintf("after %d iterations", e.Iterations)
	if e.CapacityReached {
		reason = fmt.Sprintf("tree filled up after %d iterations", e.Iterations)
	}
	return fmt.Sprintf("no path found from %v to %v: %s, %d nodes, closest node %.3f away",
		e.Start, e.Goal, reason, e.Nodes, e.ClosestDistance)
}

// IsNoPath reports whether err, or anything it wraps, is a *NoPathError.
func IsNoPath(err error) bool {
	var noPath *NoPathError
	return asNoPath(err, &noPath)
}

func asNoPath(err error, target **NoPathError) bool {
	if err == nil {
		return false
	}
	return errors.As(err, target)
}

// SegmentError names the mission segment that failed.
type SegmentError struct {
	Index int
	Err   error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %d: %v", e.Index, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

// NewPlannerFailedError is returned when a mission cannot produce a path.
func NewPlannerFailedError(err error) error {
	return errors.Wrap(err, "motion planner failed to find path")
}
