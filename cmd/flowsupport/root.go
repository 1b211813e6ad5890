package main

import (
	"github.com/spf13/cobra"

	"github.com/0xcro3dile/flowsupport/internal/config"
	"github.com/0xcro3dile/flowsupport/internal/logger"
)

// app holds the loaded configuration shared by every subcommand.
type app struct {
	configPath string
	envFile    string
	verbose    bool
	cfg        *config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "flowsupport",
		Short: "Customer-support assistant answering from Flow's PDF manuals",
		Long: `flowsupport extracts and chunks the PDF manuals in the raw directory,
indexes them in a vector collection and answers support questions from them,
handing billing disputes, account deletions and unanswerable questions to a human team.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.SetVerbose(a.verbose)
			config.LoadDotEnv(a.envFile)
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newProcessCmd(a),
		newLoadCmd(a),
		newAskCmd(a),
		newServeCmd(a),
		newChatCmd(a),
		newWatchCmd(a),
		newStatsCmd(a),
		newInitCmd(a),
	)
	return root
}
