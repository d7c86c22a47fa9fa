package motionplan

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/carplan/spatialmath"
	"go.viam.com/carplan/utils"
)

// SegmentResult is the outcome of planning one waypoint-to-waypoint segment. Exactly one of
// Solution and Err is set. Seed drives the first attempt; a retry k adds k times the number of
// segments to it.
type SegmentResult struct {
	Index    int
	Start    spatialmath.Pose
	Goal     spatialmath.Pose
	Seed     int64
	Attempts int
	Solution *Solution
	Err      error
}

// Succeeded reports whether the segment produced a path.
func (sr *SegmentResult) Succeeded() bool {
	return sr.Solution != nil
}

// MissionPlan is the result of planning through an ordered list of waypoints.
type MissionPlan struct {
	Segments []*SegmentResult
	// Path is the concatenation of every successful segment path, in waypoint order. Each
	// segment keeps its zero-length starting arc.
	Path spatialmath.Path
}

// Failed returns the segments that did not produce a path.
func (plan *MissionPlan) Failed() []*SegmentResult {
	var failed []*SegmentResult
	for _, seg := range plan.Segments {
		if !seg.Succeeded() {
			failed = append(failed, seg)
		}
	}
	return failed
}

// PlanMission plans one segment per consecutive pair of waypoints. Segments are independent and
// are planned concurrently, each with its own tree and a random source seeded with seed plus
// the segment index, so a given seed always produces the same mission.
//
// A segment without a path is handled according to OnSegmentFailure: abort returns an error
// naming the segment, skip leaves it out of the concatenated path, and retry replans it with
// double the iteration budget and a fresh seed up to Retries times before aborting. An aborted
// mission still returns the plan so far, with the failed segment's tree in its error.
func (mp *Planner) PlanMission(ctx context.Context, waypoints []spatialmath.Pose, seed int64) (*MissionPlan, error) {
	if len(waypoints) < 2 {
		return nil, errNoSegments
	}
	results := make([]*SegmentResult, len(waypoints)-1)

	g, gctx := errgroup.WithContext(ctx)
	threads := mp.opts.NumThreads
	if threads <= 0 {
		threads = utils.ParallelFactor
	}
	g.SetLimit(threads)
	for i := range results {
		results[i] = &SegmentResult{Index: i, Start: waypoints[i], Goal: waypoints[i+1], Seed: seed + int64(i)}
		g.Go(func() error {
			return mp.planMissionSegment(gctx, results[i], len(results))
		})
	}
	err := g.Wait()

	plan := &MissionPlan{Segments: results}
	for _, seg := range results {
		if seg.Succeeded() {
			plan.Path = append(plan.Path, seg.Solution.Path...)
		}
	}
	if err != nil {
		return plan, err
	}
	if len(plan.Path) == 0 {
		return plan, NewPlannerFailedError(errors.New("no segment produced a path"))
	}
	return plan, nil
}

// attemptSeed spaces retries by the number of segments, so no attempt of one segment replays
// an attempt of another.
func attemptSeed(seed int64, attempt, segments int) int64 {
	return seed + int64(attempt)*int64(segments)
}

func (mp *Planner) planMissionSegment(ctx context.Context, seg *SegmentResult, segments int) error {
	logger := mp.logger.Sublogger("segment")
	attempts := 1
	if mp.opts.OnSegmentFailure == RetryOnFailure {
		attempts += mp.opts.Retries
	}
	planIter := mp.opts.PlanIter
	for attempt := 0; attempt < attempts; attempt++ {
		seg.Attempts = attempt + 1
		//nolint:gosec
		randseed := rand.New(rand.NewSource(attemptSeed(seg.Seed, attempt, segments)))
		solution, err := mp.planSegment(ctx, seg.Start, seg.Goal, randseed, planIter)
		if err == nil {
			seg.Solution = solution
			seg.Err = nil
			logger.Infof("segment %d planned: %d arcs, %.2fm, %d iterations, %d nodes",
				seg.Index, len(solution.Path), solution.Path.Length(), solution.Iterations, solution.Tree.Len())
			return nil
		}
		seg.Err = err
		if !IsNoPath(err) {
			return &SegmentError{Index: seg.Index, Err: err}
		}
		logger.Warnf("segment %d attempt %d: %v", seg.Index, attempt+1, err)
		planIter *= 2
	}

	if mp.opts.OnSegmentFailure == SkipOnFailure {
		logger.Warnf("skipping segment %d from %v to %v", seg.Index, seg.Start, seg.Goal)
		return nil
	}
	return &SegmentError{Index: seg.Index, Err: seg.Err}
}
