// Command ovpngen-generate generates artifacts once, without a UI.
//
// The store is seeded from the config, values from an optional TOML values
// file are applied on top, and the generate command is published.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"ovpngen/internal/app"
	"ovpngen/internal/config"
	"ovpngen/internal/filesurface"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath, outDir, format, valuesPath string

	flagSet := pflag.NewFlagSet("ovpngen-generate", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: ./"+config.FileName+" if present)")
	flagSet.StringVarP(&outDir, "out", "o", "", "directory generated artifacts are written to")
	flagSet.StringVarP(&format, "format", "f", "", "artifact format: toml, yaml or json")
	flagSet.StringVar(&valuesPath, "values", "", "TOML values file applied over the seeds")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(config.NewConfigService(), configPath)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Output.Dir = outDir
	}
	if format != "" {
		cfg.Output.Format = format
	}
	// Values are imported below, not mirrored
	cfg.Values.File = ""

	a := app.New(cfg)
	var failures error
	a.SetErrorReporter(func(err error) { failures = errors.Join(failures, err) })
	a.Seed()

	if valuesPath != "" {
		// Registered after seeding, so its mirror is empty and every value in the file differs
		values := filesurface.New(valuesPath, a.Bus)
		a.Bus.Register(values)
		if err := values.Reload(); err != nil {
			return err
		}
		a.Bus.Unregister(values)
		log.Printf("Applied %d values from %s", len(values.Values()), valuesPath)
	}

	a.Generate()
	return failures
}
