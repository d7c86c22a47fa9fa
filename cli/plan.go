package cli

import (
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/carplan/config"
	"go.viam.com/carplan/logging"
	"go.viam.com/carplan/motionplan"
	"go.viam.com/carplan/spatialmath"
	"go.viam.com/carplan/utils"
)

// setupLogger routes logs to the app's error writer, at debug level when asked to.
func setupLogger(c *cli.Context) error {
	logger := logging.NewBlankLogger("carplan")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(debugFlag) {
		logger.SetLevel(logging.INFO)
	}
	logging.ReplaceGlobal(logger)
	return nil
}

type segmentOutput struct {
	Index    int              `json:"index"`
	Start    spatialmath.Pose `json:"start"`
	Goal     spatialmath.Pose `json:"goal"`
	Seed     int64            `json:"seed"`
	Attempts int              `json:"attempts"`
	Arcs     int              `json:"arcs"`
	Length   float64          `json:"length"`
	Error    string           `json:"error,omitempty"`
}

type planOutput struct {
	Seed     int64                  `json:"seed"`
	Segments []segmentOutput        `json:"segments"`
	Path     spatialmath.Path       `json:"path"`
	Summary  motionplan.PathSummary `json:"summary"`
}

func newPlanOutput(plan *motionplan.MissionPlan, seed int64) planOutput {
	out := planOutput{Seed: seed, Path: plan.Path, Summary: motionplan.Summarize(plan.Path)}
	for _, seg := range plan.Segments {
		so := segmentOutput{
			Index:    seg.Index,
			Start:    seg.Start,
			Goal:     seg.Goal,
			Seed:     seg.Seed,
			Attempts: seg.Attempts,
		}
		if seg.Succeeded() {
			so.Arcs = len(seg.Solution.Path)
			so.Length = seg.Solution.Path.Length()
		} else if seg.Err != nil {
			so.Error = seg.Err.Error()
		}
		out.Segments = append(out.Segments, so)
	}
	return out
}

// readConfig reads the mission and applies its log level unless --debug was given.
func readConfig(c *cli.Context) (*config.Config, error) {
	path := c.String(configFlag)
	if path == "" {
		return nil, errors.Errorf("a mission config is required, pass --%s", configFlag)
	}
	cfg, err := config.Read(path, logging.Global())
	if err != nil {
		return nil, err
	}
	if cfg.LogLevel != nil && !c.Bool(debugFlag) {
		logging.Global().SetLevel(*cfg.LogLevel)
	}
	return cfg, nil
}

// PlanAction plans the configured mission and prints the resulting path.
func PlanAction(c *cli.Context) error {
	logger := logging.Global()
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	planner, err := newPlanner(cfg, logger)
	if err != nil {
		return err
	}
	seed := cfg.Seed
	switch {
	case c.IsSet(seedFlag):
		seed = c.Int64(seedFlag)
	case seed == 0:
		seed = time.Now().UnixNano()
		logger.Infof("no seed configured, using %d", seed)
	}

	// a failed mission still returns the plan so far, which is written out before the error
	plan, planErr := planner.PlanMission(c.Context, cfg.Waypoints, seed)
	if plan == nil {
		return errors.Wrap(planErr, "could not plan mission")
	}
	printPlan(c.App.Writer, plan)

	if path := c.Path(outFlag); path != "" {
		if err := writeJSON(path, newPlanOutput(plan, seed)); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote plan to %s", path)
	}
	if path := c.Path(geojsonFlag); path != "" {
		if err := writeJSON(path, planner.MissionGeoJSON(plan)); err != nil {
			return err
		}
		printf(c.App.Writer, "wrote geojson to %s", path)
	}
	if path := c.Path(renderFlag); path != "" {
		opts, err := drawOptions(c)
		if err != nil {
			return err
		}
		if err := imaging.Save(planner.DrawMission(plan, opts), path); err != nil {
			return errors.Wrapf(err, "could not save rendering to %s", path)
		}
		printf(c.App.Writer, "wrote rendering to %s", path)
	}
	if planErr != nil {
		return errors.Wrap(planErr, "could not plan mission")
	}
	return nil
}

// InflateAction saves the configured map after obstacle inflation.
func InflateAction(c *cli.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	planner, err := newPlanner(cfg, logging.Global())
	if err != nil {
		return err
	}
	inflated := planner.InflatedMap()
	path := c.Path(outFlag)
	if err := imaging.Save(inflated.Image(), path); err != nil {
		return errors.Wrapf(err, "could not save map to %s", path)
	}
	printf(c.App.Writer, "inflated %d occupied cells to %d with a margin of %d cells, wrote %s",
		planner.Map().OccupiedCount(), inflated.OccupiedCount(), planner.Options().Margin, path)
	return nil
}

// SchemaAction prints the JSON schema of mission config files.
func SchemaAction(c *cli.Context) error {
	data, err := json.MarshalIndent(config.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

func newPlanner(cfg *config.Config, logger logging.Logger) (*motionplan.Planner, error) {
	occ, err := cfg.LoadMap()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.PlannerOptions()
	if err != nil {
		return nil, err
	}
	return motionplan.NewPlanner(occ, opts, logger.Sublogger("motionplan"))
}

func drawOptions(c *cli.Context) (*motionplan.DrawOptions, error) {
	opts := &motionplan.DrawOptions{Scale: c.Int(scaleFlag)}
	crop := c.IntSlice(cropFlag)
	switch len(crop) {
	case 0:
	case 4:
		rect := image.Rect(crop[0], crop[1], crop[2], crop[3])
		opts.Crop = &rect
	default:
		return nil, errors.Errorf("--%s takes 4 values, got %d", cropFlag, len(crop))
	}
	return opts, nil
}

func printPlan(w io.Writer, plan *motionplan.MissionPlan) {
	segments := table.NewWriter()
	segments.AppendHeader(table.Row{"Segment", "Start", "Goal", "Seed", "Attempts", "Arcs", "Length", "Status"})
	ok := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	for _, seg := range plan.Segments {
		status := ok.Sprint("ok")
		arcs, length := "", ""
		if seg.Succeeded() {
			arcs = fmt.Sprintf("%d", len(seg.Solution.Path))
			length = fmt.Sprintf("%.2f", seg.Solution.Path.Length())
		} else if seg.Err != nil {
			status = failed.Sprint(seg.Err.Error())
		}
		segments.AppendRow(table.Row{seg.Index, seg.Start, seg.Goal, seg.Seed, seg.Attempts, arcs, length, status})
	}
	printf(w, "%s", segments.Render())

	path := table.NewWriter()
	path.AppendHeader(table.Row{"#", "X", "Y", "Heading", "Steering", "Length"})
	for i, arc := range plan.Path {
		path.AppendRow(table.Row{
			i,
			fmt.Sprintf("%.3f", arc.Pose.X),
			fmt.Sprintf("%.3f", arc.Pose.Y),
			fmt.Sprintf("%.1f°", utils.RadToDeg(arc.Pose.Theta)),
			fmt.Sprintf("%.1f°", utils.RadToDeg(arc.Steering)),
			fmt.Sprintf("%.3f", arc.Length),
		})
	}
	summary := motionplan.Summarize(plan.Path)
	path.AppendFooter(table.Row{
		"", "", "", fmt.Sprintf("turn %.1f°", utils.RadToDeg(summary.TotalTurn)),
		fmt.Sprintf("max %.1f°", utils.RadToDeg(summary.MaxAbsSteering)),
		fmt.Sprintf("%.3f", summary.Length),
	})
	printf(w, "%s", path.Render())
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	//nolint:gosec
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}
	return nil
}

// printf prints a message with no prefix.
func printf(w io.Writer, format string, a ...interface{}) {
	fmt.Fprintf(w, format+"\n", a...)
}
