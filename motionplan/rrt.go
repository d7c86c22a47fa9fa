package motionplan

import (
	"context"
	"math/rand"
	"time"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/carplan/logging"
	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/occupancy"
	"go.viam.com/carplan/spatialmath"
)

// Planner grows rapidly exploring random trees for an Ackermann vehicle over one occupancy map.
// The map is inflated once when the planner is built and is only read afterwards, so a single
// Planner can solve several segments concurrently.
type Planner struct {
	opts     *PlannerOptions
	logger   logging.Logger
	model    *bicycle.Model
	occ      *occupancy.Map
	inflated *occupancy.Map
	bounds   r2.Rect
}

// Solution is a solved segment: the path to the goal and the tree that found it.
type Solution struct {
	Path       spatialmath.Path
	Tree       *Tree
	Iterations int
}

// NewPlanner validates the options and inflates the map by opts.Margin.
func NewPlanner(occ *occupancy.Map, opts *PlannerOptions, logger logging.Logger) (*Planner, error) {
	if occ == nil {
		return nil, errors.New("planner needs an occupancy map")
	}
	if opts == nil {
		opts = NewBasicPlannerOptions()
	}
	if err := opts.Validate("planner"); err != nil {
		return nil, err
	}
	inflated, err := occ.Inflate(opts.Margin)
	if err != nil {
		return nil, err
	}
	bounds := occ.Bounds()
	if opts.Bounds != nil {
		bounds = opts.Bounds.Rect()
	}
	logger.Debugf("inflated map by %d cells: %d of %d cells occupied",
		opts.Margin, inflated.OccupiedCount(), inflated.Rows()*inflated.Cols())
	return &Planner{
		opts:     opts,
		logger:   logger,
		model:    opts.model(),
		occ:      occ,
		inflated: inflated,
		bounds:   bounds,
	}, nil
}

// Options returns the options the planner was built with.
func (mp *Planner) Options() *PlannerOptions {
	return mp.opts
}

// Map returns the map as given, before inflation.
func (mp *Planner) Map() *occupancy.Map {
	return mp.occ
}

// InflatedMap returns the map arcs are checked against.
func (mp *Planner) InflatedMap() *occupancy.Map {
	return mp.inflated
}

// PlanSegment searches for a path from start to goal. It returns a *NoPathError when the
// iteration budget or the tree capacity runs out first, and ctx.Err() if the context ends or
// the configured timeout passes.
func (mp *Planner) PlanSegment(ctx context.Context, start, goal spatialmath.Pose, randseed *rand.Rand) (*Solution, error) {
	return mp.planSegment(ctx, start, goal, randseed, mp.opts.PlanIter)
}

func (mp *Planner) planSegment(
	ctx context.Context,
	start, goal spatialmath.Pose,
	randseed *rand.Rand,
	planIter int,
) (*Solution, error) {
	if mp.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(mp.opts.Timeout*float64(time.Second)))
		defer cancel()
	}

	cc := newCollisionChecker(mp.model, mp.inflated, mp.opts.CollisionSegments)
	if !cc.poseFree(start) {
		return nil, errors.Wrapf(errStartInCollision, "start %v", start)
	}
	if !cc.poseFree(goal) {
		return nil, errors.Wrapf(errGoalInCollision, "goal %v", goal)
	}

	tree := NewTree(start, goal, mp.opts.nodeCapacity(planIter))
	if start.Distance(goal) <= mp.opts.GoalTolerance {
		path, err := tree.PathTo(0)
		if err != nil {
			return nil, err
		}
		return &Solution{Path: path, Tree: tree}, nil
	}

	sampler := NewSampler(randseed, mp.bounds, goal, mp.opts.GoalBiasPeriod)
	ext := newExtender(mp.model, mp.opts.MaxStep, mp.opts.SteeringSamples)

	// Number of iterations after which a log will be printed
	logIteration := int(float64(planIter) * mp.opts.LoggingInterval)
	var extendFailures, collisions, exhausted int

	mp.logger.Debugf("planning from %v to %v with %d iterations", start, goal, planIter)
	for i := 0; i < planIter; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if logIteration > 0 && i > 0 && i%logIteration == 0 {
			_, closest := tree.closestToGoal()
			mp.logger.Debugf("RRT progress: %d%%\tnodes: %d\tclosest: %.3f\textend failures: %d\tcollisions: %d\tidle goal samples: %d",
				100*i/planIter, tree.Len(), closest, extendFailures, collisions, exhausted)
		}

		target, isGoal := sampler.Next()
		var nearID int
		if isGoal {
			// each node is grown towards the goal at most once
			id, ok := tree.nearestUntried(target)
			if !ok {
				exhausted++
				continue
			}
			tree.markGoalTried(id)
			nearID = id
		} else {
			nearID = tree.Nearest(target)
		}
		near, _ := tree.Node(nearID)

		arc, ok := ext.extend(near, target)
		if !ok {
			extendFailures++
			continue
		}
		arc, ok = cc.clipAtGoal(near.Pose, arc, goal, mp.opts.GoalTolerance)
		if !ok {
			collisions++
			continue
		}

		id, err := tree.Insert(near.ID, arc.Pose, target, arc.Steering, arc.Length)
		if err != nil {
			if errors.Is(err, errTreeFull) {
				return nil, mp.noPath(tree, i+1, true)
			}
			return nil, err
		}

		if arc.Pose.Distance(goal) <= mp.opts.GoalTolerance {
			path, err := tree.PathTo(id)
			if err != nil {
				return nil, err
			}
			mp.logger.Debugf("reached goal after %d iterations with %d nodes, path of %d arcs", i+1, tree.Len(), len(path))
			return &Solution{Path: path, Tree: tree, Iterations: i + 1}, nil
		}
	}
	return nil, mp.noPath(tree, planIter, false)
}

func (mp *Planner) noPath(tree *Tree, iterations int, full bool) error {
	closest, dist := tree.closestToGoal()
	return &NoPathError{
		Start:           tree.Start(),
		Goal:            tree.Goal(),
		Iterations:      iterations,
		Nodes:           tree.Len(),
		ClosestNode:     closest,
		ClosestDistance: dist,
		CapacityReached: full,
		Tree:            tree,
	}
}
