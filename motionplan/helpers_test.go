package motionplan

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/carplan/occupancy"
)

// emptyMap is the reference 20m x 20m arena at 5cm cells with no obstacles.
func emptyMap(t *testing.T) *occupancy.Map {
	t.Helper()
	m, err := occupancy.NewEmpty(400, 400, occupancy.DefaultResolution, nil)
	test.That(t, err, test.ShouldBeNil)
	return m
}

// wallMap is the reference arena with a wall across its full width covering world x in [xMin, xMax].
func wallMap(t *testing.T, xMin, xMax float64) *occupancy.Map {
	t.Helper()
	const rows, cols = 400, 400
	occupied := make([]bool, rows*cols)
	grid, err := occupancy.NewEmpty(rows, cols, occupancy.DefaultResolution, nil)
	test.That(t, err, test.ShouldBeNil)
	rowMin, _ := grid.WorldToCell(xMin, 0)
	rowMax, _ := grid.WorldToCell(xMax, 0)
	for r := rowMin; r <= rowMax; r++ {
		for c := 0; c < cols; c++ {
			occupied[r*cols+c] = true
		}
	}
	m, err := occupancy.New(rows, cols, occupied, occupancy.DefaultResolution, nil)
	test.That(t, err, test.ShouldBeNil)
	return m
}

func testOptions() *PlannerOptions {
	opts := NewBasicPlannerOptions()
	opts.Margin = 0
	opts.LoggingInterval = 0.25
	return opts
}
