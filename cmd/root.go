package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/support-router/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "supportrouter",
	Short: "Conversational customer-support router",
	Long: `Support Router answers customer messages. It classifies each message,
asks for email and phone before disclosing anything about an order, and
hands the question to the policy responder (retrieval over your policy
documents) or the order responder (status, refunds, shipping, returns
and cancellation).`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

