// Package main is the pointpca command itself.
package main

import (
	"os"

	"go.viam.com/pointpca/cli"
	"go.viam.com/pointpca/logging"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		logging.Global().Error(err)
		os.Exit(1)
	}
}
