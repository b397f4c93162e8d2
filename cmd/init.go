package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/support-router/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize supportrouter configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the support router and writes the result to the --config path (supportrouter.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil {
			return fmt.Errorf("%s already exists; remove it first to start over", cfgFile)
		}
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
