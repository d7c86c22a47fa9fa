// Package main is the CLI command itself.
package main

import (
	"os"

	"go.viam.com/carplan/cli"
	"go.viam.com/carplan/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Errorw("carplan failed", "error", err)
		os.Exit(1)
	}
}
