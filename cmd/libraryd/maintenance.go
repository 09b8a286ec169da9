package main

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/library-ledger-go/library/features/command/seedcatalog"
	"github.com/AntonStoeckl/library-ledger-go/library/features/command/sweepoverdue"
	"github.com/AntonStoeckl/library-ledger-go/library/features/query/inventoryaudit"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func (c *cli) migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tables or collections and their indexes, existing ones are kept",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			if rt.migrate == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "the %s engine needs no migration\n", rt.cfg.StorageEngine)
				return nil
			}

			if err := rt.migrate(cmd.Context()); err != nil {
				return fmt.Errorf("migrating %s: %w", rt.cfg.StorageEngine, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrated the %s engine\n", rt.cfg.StorageEngine)

			return nil
		}),
	}
}

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the sample catalog, books with a known ISBN are skipped",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			handlers, err := rt.handlers()
			if err != nil {
				return err
			}

			result, err := handlers.SeedCatalog.Handle(cmd.Context(), seedcatalog.BuildCommand(time.Now()))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d books, skipped %d\n", result.Value.Inserted, result.Value.Skipped)

			return nil
		}),
	}
}

func (c *cli) sweepOverdueCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-overdue",
		Short: "Mark every borrowed book past its due date as overdue, once",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			handlers, err := rt.handlers()
			if err != nil {
				return err
			}

			result, err := handlers.SweepOverdue.Handle(cmd.Context(), sweepoverdue.BuildCommand(time.Now()))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d borrowings marked overdue\n", result.Value)

			return nil
		}),
	}
}

func (c *cli) auditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "audit",
		Short: "Print the inventory drift report as JSON and fail when a book drifted",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, rt *runtime) error {
			handlers, err := rt.handlers()
			if err != nil {
				return err
			}

			report, err := handlers.InventoryAudit.Handle(cmd.Context(), inventoryaudit.BuildQuery())
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if err = encoder.Encode(report); err != nil {
				return fmt.Errorf("writing report: %w", err)
			}

			return report.Err()
		}),
	}
}
