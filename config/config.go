// Package config defines the mission file the carplan tool runs from: the map to plan on, the
// vehicle, the sampling bounds, the waypoints to visit and any planner overrides.
package config

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/carplan/logging"
	"go.viam.com/carplan/motionplan"
	"go.viam.com/carplan/occupancy"
	"go.viam.com/carplan/spatialmath"
	"go.viam.com/carplan/utils"
)

// Config describes a full planning run. A zero Seed leaves the choice of seed to the caller,
// and an unset LogLevel leaves the log level to it.
type Config struct {
	ConfigFilePath string `json:"-"`

	Map       MapConfig              `json:"map"`
	Vehicle   *VehicleConfig         `json:"vehicle,omitempty"`
	Bounds    *motionplan.Bounds     `json:"bounds,omitempty"`
	Waypoints []spatialmath.Pose     `json:"waypoints"`
	Seed      int64                  `json:"seed,omitempty"`
	Planner   map[string]interface{} `json:"planner,omitempty"`
	LogLevel  *logging.Level         `json:"log_level,omitempty" jsonschema:"type=string,enum=debug,enum=info,enum=warn,enum=error"`
}

// MapConfig locates the occupancy image and says how to read it.
type MapConfig struct {
	// Image file. Relative paths are resolved against the directory of the config file.
	Path       string   `json:"path"`
	Resolution float64  `json:"resolution,omitempty"`
	OriginRow  *float64 `json:"origin_row,omitempty"`
	OriginCol  *float64 `json:"origin_col,omitempty"`
	Margin     *int     `json:"margin,omitempty"`
	Threshold  int      `json:"threshold,omitempty"`
}

// VehicleConfig overrides the default vehicle geometry. Unset fields keep the defaults; a zero
// MaxSteering only drives straight.
type VehicleConfig struct {
	Wheelbase   *float64 `json:"wheelbase,omitempty"`
	MaxSteering *float64 `json:"max_steering,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (c *MapConfig) Validate(path string) error {
	var errs error
	if c.Path == "" {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "path"))
	}
	if c.Resolution < 0 || math.IsNaN(c.Resolution) || math.IsInf(c.Resolution, 0) {
		errs = multierr.Append(errs,
			utils.NewConfigValidationFieldOutOfRangeError(path, "resolution", c.Resolution, "positive and finite"))
	}
	if (c.OriginRow == nil) != (c.OriginCol == nil) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.New(`"origin_row" and "origin_col" must be set together`)))
	}
	if c.Margin != nil && *c.Margin < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldOutOfRangeError(path, "margin", *c.Margin, "zero or positive"))
	}
	if c.Threshold < 0 || c.Threshold > 255 {
		errs = multierr.Append(errs, utils.NewConfigValidationFieldOutOfRangeError(path, "threshold", c.Threshold, "in [0, 255]"))
	}
	return errs
}

// Origin returns the configured origin, or nil for a centred map.
func (c *MapConfig) Origin() *occupancy.Origin {
	if c.OriginRow == nil || c.OriginCol == nil {
		return nil
	}
	return &occupancy.Origin{Row: *c.OriginRow, Col: *c.OriginCol}
}

// Validate ensures all parts of the config are valid.
func (c *VehicleConfig) Validate(path string) error {
	var errs error
	if c.Wheelbase != nil && (!(*c.Wheelbase > 0) || math.IsInf(*c.Wheelbase, 0)) {
		errs = multierr.Append(errs,
			utils.NewConfigValidationFieldOutOfRangeError(path, "wheelbase", *c.Wheelbase, "positive and finite"))
	}
	if c.MaxSteering != nil && (!(*c.MaxSteering >= 0) || *c.MaxSteering >= math.Pi/2) {
		errs = multierr.Append(errs,
			utils.NewConfigValidationFieldOutOfRangeError(path, "max_steering", *c.MaxSteering, "in [0, pi/2)"))
	}
	return errs
}

// Ensure validates every section and reports all problems found.
func (c *Config) Ensure() error {
	errs := c.Map.Validate("map")
	if c.Vehicle != nil {
		errs = multierr.Append(errs, c.Vehicle.Validate("vehicle"))
	}
	if c.Bounds != nil && !(c.Bounds.XMin < c.Bounds.XMax && c.Bounds.YMin < c.Bounds.YMax) {
		errs = multierr.Append(errs, utils.NewConfigValidationError("bounds",
			errors.Errorf("minimums must be below maximums, got %+v", *c.Bounds)))
	}
	if len(c.Waypoints) < 2 {
		errs = multierr.Append(errs, utils.NewConfigValidationError("waypoints",
			errors.Errorf("at least 2 waypoints are required, got %d", len(c.Waypoints))))
	}
	for i, wp := range c.Waypoints {
		if math.IsNaN(wp.X) || math.IsNaN(wp.Y) || math.IsNaN(wp.Theta) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(fmt.Sprintf("waypoints.%d", i),
				errors.New("coordinates must be numbers")))
		}
	}
	if _, err := c.PlannerOptions(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// MapPath returns the map image path, resolved against the config file's directory.
func (c *Config) MapPath() string {
	if c.Map.Path == "" || filepath.IsAbs(c.Map.Path) || c.ConfigFilePath == "" {
		return c.Map.Path
	}
	return filepath.Join(filepath.Dir(c.ConfigFilePath), c.Map.Path)
}

// LoadMap reads the configured occupancy map.
func (c *Config) LoadMap() (*occupancy.Map, error) {
	resolution := c.Map.Resolution
	if resolution == 0 {
		resolution = occupancy.DefaultResolution
	}
	return occupancy.Load(c.MapPath(), resolution, c.Map.Origin(), uint8(c.Map.Threshold))
}

// PlannerOptions decodes the planner section over the defaults, then applies the vehicle, bounds
// and margin sections, which take precedence.
func (c *Config) PlannerOptions() (*motionplan.PlannerOptions, error) {
	opts, err := motionplan.NewPlannerOptionsFromExtra(c.Planner)
	if err != nil {
		return nil, utils.NewConfigValidationError("planner", err)
	}
	if c.Vehicle != nil {
		if c.Vehicle.Wheelbase != nil {
			opts.Wheelbase = *c.Vehicle.Wheelbase
		}
		if c.Vehicle.MaxSteering != nil {
			opts.MaxSteering = *c.Vehicle.MaxSteering
		}
	}
	if c.Bounds != nil {
		bounds := *c.Bounds
		opts.Bounds = &bounds
	}
	if c.Map.Margin != nil {
		opts.Margin = *c.Map.Margin
	}
	if err := opts.Validate("planner"); err != nil {
		return nil, err
	}
	return opts, nil
}
