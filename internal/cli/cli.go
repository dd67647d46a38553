// Package cli implements the livvittctl operator commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/noah-isme/livvitt-quotes/internal/app"
	"github.com/noah-isme/livvitt-quotes/internal/common"
	"github.com/noah-isme/livvitt-quotes/internal/config"
	"github.com/noah-isme/livvitt-quotes/internal/obs"
)

// Runtime is what every command runs against.
type Runtime struct {
	Open   func(ctx context.Context) (*app.Dependencies, error)
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultRuntime opens the store described by the environment.
func DefaultRuntime() *Runtime {
	return &Runtime{
		Open: func(ctx context.Context) (*app.Dependencies, error) {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			logger := obs.NewLoggerTo(os.Stderr, "console", "warn")
			return app.NewDependencies(ctx, cfg, logger)
		},
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Commands lists every livvittctl subcommand bound to rt.
func Commands(rt *Runtime) []subcommands.Command {
	return []subcommands.Command{
		&totalsCmd{rt: rt},
		&nextCmd{rt: rt},
		&countersCmd{rt: rt},
		&pipelineCmd{rt: rt},
		&importCmd{rt: rt},
		&exportCmd{rt: rt},
		&priceBookCmd{rt: rt},
	}
}

// with opens the dependencies, runs fn and reports its error.
func (rt *Runtime) with(ctx context.Context, fn func(*app.Dependencies) error) subcommands.ExitStatus {
	deps, err := rt.Open(ctx)
	if err != nil {
		rt.fail(err)
		return subcommands.ExitFailure
	}
	defer deps.Close()
	if err := fn(deps); err != nil {
		rt.fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (rt *Runtime) fail(err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		fmt.Fprintf(rt.Stderr, "error: %s\n", appErr.Message)
		return
	}
	fmt.Fprintf(rt.Stderr, "error: %v\n", err)
}

func (rt *Runtime) usage(msg string) subcommands.ExitStatus {
	fmt.Fprintln(rt.Stderr, msg)
	return subcommands.ExitUsageError
}
