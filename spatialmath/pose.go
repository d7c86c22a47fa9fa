// Package spatialmath defines the planar poses, arcs and paths the planner works with.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"go.viam.com/carplan/utils"
)

// Pose is a position and heading in the world frame. Theta is in radians, measured from the
// +x axis, and is not wrapped.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// NewPose returns a pose at (x, y) facing theta.
func NewPose(x, y, theta float64) Pose {
	return Pose{X: x, Y: y, Theta: theta}
}

// NewPoseFromPoint returns a pose at the given point facing theta.
func NewPoseFromPoint(pt r2.Point, theta float64) Pose {
	return Pose{X: pt.X, Y: pt.Y, Theta: theta}
}

// Point returns the position of the pose.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Distance returns the Euclidean distance between the positions of two poses. Heading is ignored.
func (p Pose) Distance(other Pose) float64 {
	return p.Point().Sub(other.Point()).Norm()
}

// DistanceSquared is Distance without the square root.
func (p Pose) DistanceSquared(other Pose) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return dx*dx + dy*dy
}

// Heading returns the unit vector the pose faces.
func (p Pose) Heading() r2.Point {
	return r2.Point{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.1f°)", p.X, p.Y, utils.RadToDeg(p.Theta))
}

// PoseAlmostEqual returns true if the positions are within epsilon of each other and the
// headings point the same way to within epsilon radians.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	return utils.Float64AlmostEqual(a.X, b.X, epsilon) &&
		utils.Float64AlmostEqual(a.Y, b.Y, epsilon) &&
		math.Abs(utils.WrapAngle(a.Theta-b.Theta)) <= epsilon
}
