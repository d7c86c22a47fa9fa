package motionplan

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/carplan/logging"
	"go.viam.com/carplan/spatialmath"
)

func TestPlanSegmentEmptyMap(t *testing.T) {
	start := spatialmath.NewPose(0, 0, 0)
	goal := spatialmath.NewPose(5, 0, 0)
	for _, margin := range []int{0, 15} {
		t.Run(fmt.Sprintf("margin %d", margin), func(t *testing.T) {
			opts := testOptions()
			opts.PlanIter = 2000
			opts.MaxStep = 2
			opts.Margin = margin
			opts.LoggingInterval = 0
			mp, err := NewPlanner(emptyMap(t), opts, logging.NewTestLogger(t))
			test.That(t, err, test.ShouldBeNil)
			model := opts.model()

			for seed := int64(0); seed < 200; seed++ {
				//nolint:gosec
				solution, err := mp.PlanSegment(context.Background(), start, goal, rand.New(rand.NewSource(seed)))
				test.That(t, err, test.ShouldBeNil)
				path := solution.Path
				test.That(t, len(path), test.ShouldBeGreaterThan, 1)
				test.That(t, path[0].IsRoot(), test.ShouldBeTrue)
				test.That(t, path.Start(), test.ShouldResemble, start)
				test.That(t, path.End().Distance(goal), test.ShouldBeLessThanOrEqualTo, opts.GoalTolerance)
				test.That(t, solution.Iterations, test.ShouldBeLessThanOrEqualTo, opts.PlanIter)

				for i := 1; i < len(path); i++ {
					test.That(t, path[i].Length, test.ShouldBeLessThanOrEqualTo, opts.MaxStep)
					test.That(t, path[i].Length, test.ShouldBeGreaterThan, 0.)
					test.That(t, math.Abs(path[i].Steering), test.ShouldBeLessThanOrEqualTo, opts.MaxSteering)
					// every arc is drivable from the one before it
					driven := model.Advance(path[i-1].Pose, path[i].Steering, path[i].Length)
					test.That(t, spatialmath.PoseAlmostEqual(driven, path[i].Pose, 1e-9), test.ShouldBeTrue)
				}
			}
		})
	}
}

// A node that cannot turn towards the goal must not soak up every goal sample. With only goal
// samples the tree walks outwards through the untried nodes instead of stalling on one.
func TestPlanSegmentGoalOnlySamples(t *testing.T) {
	opts := testOptions()
	opts.GoalBiasPeriod = 1
	opts.PlanIter = 10
	opts.MaxStep = 2
	mp, err := NewPlanner(emptyMap(t), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	// facing away from a goal just behind it, no forward arc gets closer
	start := spatialmath.NewPose(0, 0, math.Pi)
	goal := spatialmath.NewPose(0.5, 0, 0)
	//nolint:gosec
	_, err = mp.PlanSegment(context.Background(), start, goal, rand.New(rand.NewSource(1)))
	var noPath *NoPathError
	test.That(t, errors.As(err, &noPath), test.ShouldBeTrue)
	test.That(t, noPath.Nodes, test.ShouldEqual, 1)

	// straight ahead the goal only samples reach it in three steps: 2m, 2m, then the rest
	//nolint:gosec
	solution, err := mp.PlanSegment(context.Background(), spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(5, 0, 0),
		rand.New(rand.NewSource(1)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solution.Iterations, test.ShouldEqual, 3)
	test.That(t, solution.Path, test.ShouldHaveLength, 4)
	test.That(t, solution.Path[1].Length, test.ShouldEqual, 2.)
	test.That(t, solution.Path[2].Length, test.ShouldEqual, 2.)
	// the last arc stops where it enters the goal radius
	test.That(t, solution.Path[3].Length, test.ShouldBeLessThan, 1.)
	test.That(t, solution.Path.End().Distance(spatialmath.NewPose(5, 0, 0)), test.ShouldBeLessThanOrEqualTo, opts.GoalTolerance)
}

func TestPlanSegmentWall(t *testing.T) {
	logger := logging.NewTestLogger(t)
	opts := testOptions()
	opts.PlanIter = 50
	mp, err := NewPlanner(wallMap(t, 2, 3), opts, logger)
	test.That(t, err, test.ShouldBeNil)

	start := spatialmath.NewPose(0, 0, 0)
	goal := spatialmath.NewPose(5, 0, 0)
	//nolint:gosec
	_, err = mp.PlanSegment(context.Background(), start, goal, rand.New(rand.NewSource(1)))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsNoPath(err), test.ShouldBeTrue)

	var noPath *NoPathError
	test.That(t, errors.As(err, &noPath), test.ShouldBeTrue)
	test.That(t, noPath.Iterations, test.ShouldEqual, 50)
	test.That(t, noPath.CapacityReached, test.ShouldBeFalse)
	test.That(t, noPath.Nodes, test.ShouldEqual, noPath.Tree.Len())
	test.That(t, noPath.ClosestDistance, test.ShouldBeGreaterThan, opts.GoalTolerance)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no path found")

	// no node made it past the wall
	for _, edge := range noPath.Tree.Edges() {
		test.That(t, edge.Node.Pose.X, test.ShouldBeLessThan, 2.)
	}
}

func TestPlanSegmentCapacity(t *testing.T) {
	opts := testOptions()
	opts.PlanIter = 500
	opts.MaxNodes = 5
	mp, err := NewPlanner(wallMap(t, 2, 3), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	//nolint:gosec
	_, err = mp.PlanSegment(context.Background(), spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(5, 0, 0), rand.New(rand.NewSource(1)))
	var noPath *NoPathError
	test.That(t, errors.As(err, &noPath), test.ShouldBeTrue)
	test.That(t, noPath.CapacityReached, test.ShouldBeTrue)
	test.That(t, noPath.Nodes, test.ShouldEqual, 5)
	test.That(t, noPath.Iterations, test.ShouldBeLessThan, 500)
}

func TestPlanSegmentDeterministic(t *testing.T) {
	opts := testOptions()
	opts.PlanIter = 2000
	mp, err := NewPlanner(emptyMap(t), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	start := spatialmath.NewPose(-5, -3, 0)
	goal := spatialmath.NewPose(5, 3, 0)
	plan := func() (*Solution, error) {
		//nolint:gosec
		return mp.PlanSegment(context.Background(), start, goal, rand.New(rand.NewSource(99)))
	}
	first, err := plan()
	test.That(t, err, test.ShouldBeNil)
	second, err := plan()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(first.Path), test.ShouldBeGreaterThan, 1)
	test.That(t, cmp.Diff(first.Path, second.Path), test.ShouldBeEmpty)
	test.That(t, cmp.Diff(first.Tree.Edges(), second.Tree.Edges()), test.ShouldBeEmpty)
	test.That(t, first.Iterations, test.ShouldEqual, second.Iterations)
}

func TestPlanSegmentRejectsBlockedEndpoints(t *testing.T) {
	opts := testOptions()
	opts.Margin = 4
	mp, err := NewPlanner(wallMap(t, 2, 3), opts, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ctx := context.Background()

	//nolint:gosec
	_, err = mp.PlanSegment(ctx, spatialmath.NewPose(2.5, 0, 0), spatialmath.NewPose(5, 0, 0), rand.New(rand.NewSource(1)))
	test.That(t, errors.Is(err, errStartInCollision), test.ShouldBeTrue)

	// inside the inflation margin but outside the wall itself
	//nolint:gosec
	_, err = mp.PlanSegment(ctx, spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(1.9, 0, 0), rand.New(rand.NewSource(1)))
	test.That(t, errors.Is(err, errGoalInCollision), test.ShouldBeTrue)
	test.That(t, IsNoPath(err), test.ShouldBeFalse)

	//nolint:gosec
	_, err = mp.PlanSegment(ctx, spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(0, 50, 0), rand.New(rand.NewSource(1)))
	test.That(t, errors.Is(err, errGoalInCollision), test.ShouldBeTrue)
}

func TestPlanSegmentStartAtGoal(t *testing.T) {
	mp, err := NewPlanner(emptyMap(t), testOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	//nolint:gosec
	solution, err := mp.PlanSegment(context.Background(), spatialmath.NewPose(1, 1, 0), spatialmath.NewPose(1.1, 1, 0), rand.New(rand.NewSource(1)))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, solution.Path, test.ShouldHaveLength, 1)
	test.That(t, solution.Iterations, test.ShouldEqual, 0)
}

func TestPlanSegmentCancelled(t *testing.T) {
	mp, err := NewPlanner(emptyMap(t), testOptions(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	//nolint:gosec
	_, err = mp.PlanSegment(ctx, spatialmath.NewPose(0, 0, 0), spatialmath.NewPose(5, 5, 0), rand.New(rand.NewSource(1)))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestNewPlannerValidates(t *testing.T) {
	logger := logging.NewTestLogger(t)
	_, err := NewPlanner(nil, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)

	opts := testOptions()
	opts.MaxStep = 0
	opts.Wheelbase = -1
	_, err = NewPlanner(emptyMap(t), opts, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "max_step")
	test.That(t, err.Error(), test.ShouldContainSubstring, "wheelbase")

	mp, err := NewPlanner(emptyMap(t), nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mp.Options().PlanIter, test.ShouldEqual, defaultPlanIter)
	test.That(t, mp.InflatedMap().OccupiedCount(), test.ShouldEqual, 0)
}
