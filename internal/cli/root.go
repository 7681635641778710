// Package cli implements the nimbus command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimbus-ai/nimbus/internal/config"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var (
	flagConfig     string
	flagDebug      bool
	flagNoVoice    bool
	flagNoLearning bool
)

var rootCmd = &cobra.Command{
	Use:   "nimbus",
	Short: "Nimbus - a local-first desktop assistant that learns",
	Long: `Nimbus is a desktop assistant that routes your commands to plugins
(weather, web search, system control, clipboard) and answers questions from a
self-learning knowledge base, with a local Ollama model for everything else.

Run a mode subcommand, or run nimbus without arguments for text mode.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMode(config.ModeText)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nimbus %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func modeCmd(mode config.Mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(mode),
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMode(mode)
		},
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to the config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagNoVoice, "no-voice", false, "disable voice input and output")
	rootCmd.PersistentFlags().BoolVar(&flagNoLearning, "no-learning", false, "disable auto-learning")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(modeCmd(config.ModeLearning, "Text mode with auto-learning on"))
	rootCmd.AddCommand(modeCmd(config.ModePro, "Voice mode with auto-learning on"))
	rootCmd.AddCommand(modeCmd(config.ModeBasic, "Text mode with auto-learning off"))
	rootCmd.AddCommand(modeCmd(config.ModeVoice, "Voice input and spoken responses"))
	rootCmd.AddCommand(modeCmd(config.ModeText, "Type commands, read responses"))
	rootCmd.AddCommand(setupCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
