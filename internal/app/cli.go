package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/TrackNotify/config"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

// MustLoadConfig loads config from args and the environment. It prints help
// and exits on --help and panics on any other error.
func MustLoadConfig(args []string) *config.Config {
	cfg, err := config.Load(args)
	if err != nil {
		var fe *flags.Error
		if errors.As(err, &fe) && fe.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, fe.Message)
			os.Exit(0)
		}
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// RunJobMain is the body of the one-shot binaries: handled job errors are
// logged and the process exits 0; wiring failures panic.
func RunJobMain(job string, f Factories) {
	cfg := MustLoadConfig(os.Args[1:])
	SetupLogging(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunJob(ctx, cfg, f, job); err != nil {
		panic(err)
	}
}

// RunJob wires the app, runs job once and returns only wiring errors.
func RunJob(ctx context.Context, cfg *config.Config, f Factories, job string) error {
	if err := CheckJobConfig(cfg, job); err != nil {
		return err
	}
	a, err := Build(ctx, cfg, f)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.RunOnce(ctx, job); err != nil {
		slog.Error("job failed", "job", job, "error", err.Error())
	}
	return nil
}
