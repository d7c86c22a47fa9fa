// Package cli contains the carplan command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

// Flags.
const (
	configFlag  = "config"
	debugFlag   = "debug"
	seedFlag    = "seed"
	outFlag     = "out"
	renderFlag  = "render"
	geojsonFlag = "geojson"
	cropFlag    = "crop"
	scaleFlag   = "scale"
)

var app = &cli.App{
	Name:            "carplan",
	Usage:           "plan kinodynamically feasible paths for car-like robots",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load mission configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
	},
	Before: setupLogger,
	Commands: []*cli.Command{
		{
			Name:      "plan",
			Usage:     "plan a path through every waypoint of the mission",
			UsageText: "carplan --config <FILE> plan [--seed N] [--out FILE] [--render FILE] [--geojson FILE]",
			Flags: []cli.Flag{
				&cli.Int64Flag{
					Name:  seedFlag,
					Usage: "random seed, overriding the one in the config; unset seeds from the clock",
				},
				&cli.PathFlag{
					Name:  outFlag,
					Usage: "write the plan as JSON to `FILE`",
				},
				&cli.PathFlag{
					Name:  renderFlag,
					Usage: "render the search trees and path to an image `FILE`",
				},
				&cli.PathFlag{
					Name:  geojsonFlag,
					Usage: "export the search trees and path as GeoJSON to `FILE`",
				},
				&cli.IntSliceFlag{
					Name:  cropFlag,
					Usage: "map cell rectangle min_col,min_row,max_col,max_row to keep when rendering",
				},
				&cli.IntFlag{
					Name:  scaleFlag,
					Value: 2,
					Usage: "rendered pixels per map cell",
				},
			},
			Action: PlanAction,
		},
		{
			Name:      "inflate",
			Usage:     "save the mission map with obstacles grown by the planning margin",
			UsageText: "carplan --config <FILE> inflate --out <FILE>",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     outFlag,
					Required: true,
					Usage:    "write the inflated map image to `FILE`",
				},
			},
			Action: InflateAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of mission config files",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI function pointers.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
