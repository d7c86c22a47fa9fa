package spatialmath

import "fmt"

// Arc is one constant-curvature step of a path: the pose reached by driving Length meters
// with the wheels held at Steering radians. A zero-length arc marks the start of a path.
type Arc struct {
	Pose     Pose    `json:"pose"`
	Steering float64 `json:"steering"`
	Length   float64 `json:"length"`
}

// IsRoot reports whether the arc is the zero-length starting arc of a path.
func (a Arc) IsRoot() bool {
	return a.Length == 0 && a.Steering == 0
}

func (a Arc) String() string {
	return fmt.Sprintf("%v steer=%.4f len=%.3f", a.Pose, a.Steering, a.Length)
}

// Path is an ordered list of arcs from a start pose to a terminal pose. The first arc is the
// start pose with zero steering and length.
type Path []Arc

// Length returns the total distance driven along the path.
func (p Path) Length() float64 {
	total := 0.
	for _, arc := range p {
		total += arc.Length
	}
	return total
}

// Poses returns the pose at the end of each arc.
func (p Path) Poses() []Pose {
	poses := make([]Pose, 0, len(p))
	for _, arc := range p {
		poses = append(poses, arc.Pose)
	}
	return poses
}

// Start returns the first pose of the path. It panics on an empty path.
func (p Path) Start() Pose {
	return p[0].Pose
}

// End returns the final pose of the path. It panics on an empty path.
func (p Path) End() Pose {
	return p[len(p)-1].Pose
}
