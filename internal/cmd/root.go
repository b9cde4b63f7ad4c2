package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/irdumbs/jamcord/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "jamcord",
	Short: "Collaborative turn-based live-coding sessions",
	Long: `Jamcord runs multi-participant live-coding jam sessions: each
participant posts code submissions, confirms a turn with an emblem, and the
winning submission is piped into a shared music interpreter. Results land on
a single self-updating console surface in the room.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/jamcord/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath("$HOME/.config/jamcord")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("JAMCORD")
	// Replace dots with underscores for nested keys in env vars
	// e.g., JAMCORD_SESSION_PAGE_BUDGET for session.page_budget
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
