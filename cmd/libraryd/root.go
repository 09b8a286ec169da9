package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/shell/config"
)

type cli struct {
	envFiles []string
}

func newRootCommand() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "libraryd",
		Short:         "Library inventory and borrowing ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringSliceVar(&c.envFiles, "env-file", nil,
		"env files loaded before the environment is read, already set variables win (default .env)")

	root.AddCommand(
		c.serveCommand(),
		c.migrateCommand(),
		c.seedCommand(),
		c.sweepOverdueCommand(),
		c.auditCommand(),
		c.createAdminCommand(),
	)

	return root
}

// boot loads the configuration and opens the runtime. Logs go to the command's stderr.
// The caller must close the runtime.
func (c *cli) boot(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(c.envFiles...)
	if err != nil {
		return nil, err
	}

	rt, err := newRuntime(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", serviceName, err)
	}

	return rt, nil
}

// run boots a runtime, hands it to fn and closes it afterwards.
func (c *cli) run(fn func(cmd *cobra.Command, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) (err error) {
		rt, err := c.boot(cmd)
		if err != nil {
			return err
		}

		defer func() {
			if closeErr := rt.close(context.WithoutCancel(cmd.Context())); closeErr != nil && err == nil {
				err = closeErr
			}
		}()

		return fn(cmd, rt)
	}
}
