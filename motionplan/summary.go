package motionplan

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"go.viam.com/carplan/spatialmath"
)

// PathSummary describes the driving arcs of a path. Zero-length starting arcs are not counted.
type PathSummary struct {
	Arcs           int     `json:"arcs"`
	Length         float64 `json:"length"`
	MeanStep       float64 `json:"mean_step"`
	MedianStep     float64 `json:"median_step"`
	StdDevStep     float64 `json:"std_dev_step"`
	MaxAbsSteering float64 `json:"max_abs_steering"`
	TotalTurn      float64 `json:"total_turn"`
}

// Summarize computes a PathSummary.
func Summarize(path spatialmath.Path) PathSummary {
	steps := make([]float64, 0, len(path))
	steering := make([]float64, 0, len(path))
	turns := make([]float64, 0, len(path))
	for i, arc := range path {
		if arc.IsRoot() {
			continue
		}
		steps = append(steps, arc.Length)
		steering = append(steering, math.Abs(arc.Steering))
		if i > 0 {
			turns = append(turns, math.Abs(arc.Pose.Theta-path[i-1].Pose.Theta))
		}
	}
	if len(steps) == 0 {
		return PathSummary{}
	}
	summary := PathSummary{
		Arcs:           len(steps),
		Length:         floats.Sum(steps),
		MaxAbsSteering: floats.Max(steering),
		TotalTurn:      floats.Sum(turns),
	}
	summary.MeanStep, summary.StdDevStep = stat.MeanStdDev(steps, nil)
	if len(steps) == 1 {
		summary.StdDevStep = 0
	}
	// steps is non-empty here, which is Median's only failure
	summary.MedianStep, _ = stats.Median(steps)
	return summary
}
