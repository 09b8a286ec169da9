package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library/auth"
	"github.com/AntonStoeckl/library-ledger-go/library/httpapi"
	"github.com/AntonStoeckl/library-ledger-go/library/sweeper"
)

func (c *cli) serveCommand() *cobra.Command {
	var withoutSweeper bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the periodic overdue sweep until interrupted",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			return serve(cmd.Context(), rt, !withoutSweeper)
		}),
	}

	cmd.Flags().BoolVar(&withoutSweeper, "no-sweeper", false,
		"do not run the overdue sweep in this process, e.g. when a scheduled sweep-overdue job does it")

	return cmd
}

func serve(ctx context.Context, rt *runtime, withSweeper bool) error {
	handlers, err := rt.handlers()
	if err != nil {
		return err
	}

	tokens, err := rt.tokens(ctx)
	if err != nil {
		return err
	}

	authenticator := auth.NewAuthenticator(rt.store, rt.hasher(), tokens, auth.WithLogger(rt.logger))

	api := httpapi.New(handlers, authenticator,
		httpapi.WithLogger(rt.logger),
		httpapi.WithRequestTimeout(rt.cfg.RequestTimeout),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sweepDone := make(chan error, 1)

	if withSweeper {
		overdueSweeper, sweeperErr := sweeper.New(handlers.SweepOverdue, rt.cfg.SweepInterval, sweeper.WithLogger(rt.logger))
		if sweeperErr != nil {
			return sweeperErr
		}

		go func() {
			sweepDone <- overdueSweeper.Run(ctx)
		}()
	} else {
		sweepDone <- nil
	}

	rt.logger.InfoContext(ctx, "http server listening", "addr", rt.cfg.HTTPAddr)

	serveErr := httpapi.Serve(ctx, rt.cfg.HTTPAddr, api.Handler(), rt.cfg.RequestTimeout)
	cancel()

	err = errors.Join(serveErr, <-sweepDone)

	rt.logger.InfoContext(context.WithoutCancel(ctx), "http server stopped")

	return err
}
