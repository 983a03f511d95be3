package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"ovpngen/internal/app"
	"ovpngen/internal/config"
	"ovpngen/internal/i18n"
	"ovpngen/internal/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, outDir, format, valuesPath, logPath string
	var headless bool

	flagSet := pflag.NewFlagSet("ovpngen", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default: ./"+config.FileName+" if present)")
	flagSet.StringVarP(&outDir, "out", "o", "", "directory generated artifacts are written to")
	flagSet.StringVarP(&format, "format", "f", "", "artifact format: toml, yaml or json")
	flagSet.StringVar(&valuesPath, "values", "", "TOML file mirroring the values; edits to it are applied live")
	flagSet.StringVar(&logPath, "log", "", "log file (default from config)")
	flagSet.BoolVar(&headless, "headless", false, "run without the terminal UI, driven by the values file")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
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
	if valuesPath != "" {
		cfg.Values.File = valuesPath
	}
	if logPath != "" {
		cfg.Log.File = logPath
	}
	if headless && cfg.Values.File == "" {
		return errors.New("--headless needs a values file (--values or [values] file)")
	}

	// Set up logging. The terminal belongs to the UI, so logs go to a file.
	if !headless || logPath != "" {
		logFile, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Printf("Could not open log file: %v", err)
		} else {
			defer logFile.Close()
			log.SetOutput(logFile)
		}
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	a := app.New(cfg, app.WithContext(ctx))
	// Every surface is registered by now, so seeding reaches all of them
	a.Seed()

	if headless {
		if err := a.Start(ctx); err != nil {
			return err
		}
		defer a.Close()
		log.Printf("Running headless, edit %s to change values", cfg.Values.File)
		return a.RunHeadless(ctx)
	}

	model := ui.NewModel(a.Surface, i18n.Identity{})
	a.SetErrorReporter(model.ReportError)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	a.SetDispatcher(func(fn func()) { p.Send(ui.RunMsg(fn)) })
	model.SetViewer(ui.NewPager(p), a.ArtifactPath)

	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Close()

	log.Printf("Starting UI...")
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("error running program: %w", err)
	}
	log.Printf("UI exited normally")
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `ovpngen edits the values an OpenVPN setup is generated from.

The values live in memory and are shown in a terminal form. With --values they
are also mirrored into a TOML file: editing the file updates the form, and
editing the form rewrites the file. Press ctrl+g in the form to generate and
ctrl+o to page the generated file.

Usage:
  ovpngen [flags]

Flags:
%s`, flagSet.FlagUsages())
}
