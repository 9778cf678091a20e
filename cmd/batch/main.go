package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	app "github.com/okian/platecheck/internal/app"
	"github.com/okian/platecheck/internal/batchrun"
	"github.com/okian/platecheck/internal/bootstrap"
	"github.com/okian/platecheck/internal/config"
	"github.com/okian/platecheck/pkg/logger"
)

func main() {
	var (
		dir      = flag.String("dir", "", "Directory holding the images")
		output   = flag.String("output", "", "CSV output path (default: dated history file name)")
		password = flag.String("premium-password", "", "Premium password enabling the OCR cross-check")
		verbose  = flag.Bool("verbose", false, "Print every outcome and log at debug level")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *dir == "" {
		batchrun.ShowHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := batchrun.SetupLogging(cfg.LogFormat, *verbose); err != nil {
		os.Stderr.WriteString("failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	components, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal(ctx, "failed to build components", logger.Error(err))
	}
	defer func() { _ = components.Close() }()

	svc := app.New(components.ServiceOptions(cfg, log.Named("service"))...)

	_, err = batchrun.Run(ctx, &batchrun.Config{
		Dir:             *dir,
		Output:          *output,
		PremiumPassword: *password,
		Verbose:         *verbose,
	}, svc, components.Gate, os.Stdout)
	if err != nil {
		os.Stderr.WriteString("batch failed: " + err.Error() + "\n")
		_ = components.Close()
		os.Exit(1)
	}
}
