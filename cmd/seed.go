package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/support-router/internal/db"
	"github.com/ziadkadry99/support-router/internal/orders"
)

var seedCmd = &cobra.Command{
	Use:   "seed [fixture.yaml]",
	Short: "Load customers and orders from a YAML fixture",
	Long:  `Imports customers, orders and order items from a YAML fixture into the order database. Existing records with the same ids are replaced.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fixture, err := orders.LoadFixture(args[0])
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.Orders.DBPath)
		if err != nil {
			return fmt.Errorf("opening order database: %w", err)
		}
		defer database.Close()

		n, err := orders.NewStore(database).Import(context.Background(), fixture)
		if err != nil {
			return fmt.Errorf("importing %s: %w", args[0], err)
		}

		fmt.Fprintf(os.Stderr, "Imported %d customer(s) and %d order(s) into %s\n", len(fixture.Customers), n, database.Path())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
