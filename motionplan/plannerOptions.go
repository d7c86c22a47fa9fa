package motionplan

import (
	"math"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/carplan/motionplan/bicycle"
	"go.viam.com/carplan/utils"
)

// default values for planning options.
const (
	// Number of planner iterations before giving up on a segment.
	defaultPlanIter = 1500

	// Longest arc, in meters, a single extension may drive.
	defaultMaxStep = 4.

	// A node within this many meters of the goal ends the search.
	defaultGoalTolerance = 0.2

	// Every this many samples is the goal itself.
	defaultGoalBiasPeriod = 4

	// Number of steering angles tried per extension. Odd so that driving straight is a candidate.
	defaultSteeringSamples = 11

	// Minimum number of sub-arcs an arc is split into for collision checking.
	defaultCollisionSegments = 10

	// Cells of clearance added around every obstacle before planning.
	defaultMargin = 15

	// Percentage interval of max iterations after which to print debug logs.
	defaultLoggingInterval = 0.1

	// Above this many nodes nearest neighbor queries go through a spatial index.
	neighborsBeforeIndexing = 1000
)

// the set of supported segment failure policies.
const (
	// AbortOnFailure stops the mission at the first segment without a path.
	AbortOnFailure = "abort"
	// SkipOnFailure records the failed segment and continues with the rest.
	SkipOnFailure = "skip"
	// RetryOnFailure replans a failed segment with double the iteration budget, up to Retries times.
	RetryOnFailure = "retry"
)

// Bounds is the world rectangle random samples are drawn from.
type Bounds struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// Rect returns the bounds as an r2.Rect.
func (b Bounds) Rect() r2.Rect {
	return r2.RectFromPoints(r2.Point{X: b.XMin, Y: b.YMin}, r2.Point{X: b.XMax, Y: b.YMax})
}

// PlannerOptions are a set of options to be passed to a planner which will specify how to solve a planning problem.
type PlannerOptions struct {
	// Number of planner iterations per segment before giving up.
	PlanIter int `json:"plan_iter"`

	// Longest arc a single extension may drive, in meters.
	MaxStep float64 `json:"max_step"`

	// Distance from the goal, in meters, at which a segment counts as solved.
	GoalTolerance float64 `json:"goal_tolerance"`

	// The sampler returns the goal once every this many samples.
	GoalBiasPeriod int `json:"goal_bias_period"`

	// Number of steering angles evaluated per extension.
	SteeringSamples int `json:"steering_samples"`

	// Minimum number of sub-arcs checked against the map per arc.
	CollisionSegments int `json:"collision_segments"`

	// Size of the node table. Zero sizes it for the iteration budget.
	MaxNodes int `json:"max_nodes"`

	// Obstacle inflation, in cells.
	Margin int `json:"margin"`

	// Vehicle geometry.
	Wheelbase   float64 `json:"wheelbase"`
	MaxSteering float64 `json:"max_steering"`

	// Sampling area. Nil samples the whole map.
	Bounds *Bounds `json:"bounds"`

	// Percentage interval of max iterations after which to print debug logs
	LoggingInterval float64 `json:"logging_interval"`

	// Number of seconds before terminating a segment. Zero disables the limit.
	Timeout float64 `json:"timeout"`

	// Number of segments planned at once.
	NumThreads int `json:"num_threads"`

	// What a mission does when a segment finds no path.
	OnSegmentFailure string `json:"on_segment_failure"`

	// Extra attempts for RetryOnFailure.
	Retries int `json:"retries"`
}

// NewBasicPlannerOptions returns the options the reference vehicle and maps were tuned with.
func NewBasicPlannerOptions() *PlannerOptions {
	return &PlannerOptions{
		PlanIter:          defaultPlanIter,
		MaxStep:           defaultMaxStep,
		GoalTolerance:     defaultGoalTolerance,
		GoalBiasPeriod:    defaultGoalBiasPeriod,
		SteeringSamples:   defaultSteeringSamples,
		CollisionSegments: defaultCollisionSegments,
		Margin:            defaultMargin,
		Wheelbase:         bicycle.DefaultWheelbase,
		MaxSteering:       bicycle.DefaultMaxSteering,
		LoggingInterval:   defaultLoggingInterval,
		NumThreads:        utils.ParallelFactor,
		OnSegmentFailure:  AbortOnFailure,
		Retries:           1,
	}
}

// NewPlannerOptionsFromExtra overlays a loosely typed attribute map, keyed by the json names of
// the fields, onto the default options. Unknown keys are an error.
func NewPlannerOptionsFromExtra(extra map[string]interface{}) (*PlannerOptions, error) {
	opts := NewBasicPlannerOptions()
	if len(extra) == 0 {
		return opts, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           opts,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(extra); err != nil {
		return nil, errors.Wrap(err, "decoding planner options")
	}
	return opts, nil
}

// model returns the vehicle described by the options.
func (p *PlannerOptions) model() *bicycle.Model {
	return &bicycle.Model{Wheelbase: p.Wheelbase, MaxSteering: p.MaxSteering}
}

// nodeCapacity is the root plus one node per iteration unless MaxNodes says otherwise. MaxNodes
// is given for PlanIter and grows with budgets above it.
func (p *PlannerOptions) nodeCapacity(planIter int) int {
	if p.MaxNodes > 0 {
		if planIter > p.PlanIter && p.PlanIter > 0 {
			return p.MaxNodes * planIter / p.PlanIter
		}
		return p.MaxNodes
	}
	return planIter + 1
}

// Validate returns every problem with the options at once.
func (p *PlannerOptions) Validate(path string) error {
	var errs error
	outOfRange := func(field string, value interface{}, want string) {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldOutOfRangeError(path, field, value, want))
	}
	positive := func(field string, value float64) {
		if !(value > 0) || math.IsInf(value, 0) {
			outOfRange(field, value, "positive and finite")
		}
	}

	if p.PlanIter < 1 {
		outOfRange("plan_iter", p.PlanIter, "at least 1")
	}
	positive("max_step", p.MaxStep)
	positive("goal_tolerance", p.GoalTolerance)
	if p.GoalBiasPeriod < 1 {
		outOfRange("goal_bias_period", p.GoalBiasPeriod, "at least 1")
	}
	if p.SteeringSamples < 1 {
		outOfRange("steering_samples", p.SteeringSamples, "at least 1")
	}
	if p.CollisionSegments < 1 {
		outOfRange("collision_segments", p.CollisionSegments, "at least 1")
	}
	if p.MaxNodes < 0 {
		outOfRange("max_nodes", p.MaxNodes, "zero or positive")
	}
	if p.Margin < 0 {
		outOfRange("margin", p.Margin, "zero or positive")
	}
	if err := p.model().Validate(); err != nil {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path, err))
	}
	if p.Bounds != nil && !(p.Bounds.XMin < p.Bounds.XMax && p.Bounds.YMin < p.Bounds.YMax) {
		outOfRange("bounds", *p.Bounds, "a non-empty rectangle")
	}
	if p.LoggingInterval < 0 || p.LoggingInterval > 1 {
		outOfRange("logging_interval", p.LoggingInterval, "in [0, 1]")
	}
	if p.Timeout < 0 {
		outOfRange("timeout", p.Timeout, "zero or positive")
	}
	if p.NumThreads < 0 {
		outOfRange("num_threads", p.NumThreads, "zero or positive")
	}
	switch p.OnSegmentFailure {
	case AbortOnFailure, SkipOnFailure, RetryOnFailure, "":
	default:
		outOfRange("on_segment_failure", p.OnSegmentFailure, "one of abort, skip or retry")
	}
	if p.Retries < 0 {
		outOfRange("retries", p.Retries, "zero or positive")
	}
	return errs
}
