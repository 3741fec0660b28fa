package cmd

import (
	"intro-bot/bot"
	"intro-bot/config"
	"intro-bot/handlers"
	"intro-bot/utils"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [flags]",
	Short: "Connects to Discord and runs until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}
		logger := utils.NewLogger(cfg.Log.Level)
		utils.BridgeDiscordgoLogs(logger)

		return bot.Run(cfg, logger, handlers.Register)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(runCmd)
}
