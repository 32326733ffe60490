// Package commands implements the course-creator CLI.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/course-creator/cmd/course-creator/ui"
	"github.com/spherical-ai/course-creator/internal/config"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "course-creator",
	Short: "Course Creator - generate course outlines and full courses with an LLM",
	Long: `Course Creator turns a course title and description into a structured
outline, lets you revise it, expands it into full course content and
exports the result as a PDF document.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFiles()
		ui.InitUI(noColor, verbose)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults to $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return os.Getenv("CONFIG_PATH")
}
