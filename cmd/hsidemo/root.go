package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hsidemo",
	Short: "hsidemo drives a sample hierarchical statechart",
	Long:  `hsidemo compiles a small power-aware traffic light and exercises it through run, visualize, and serve subcommands.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("state-dir", "/tmp/hsidemo", "Directory used to persist interpreter records")
	rootCmd.PersistentFlags().String("id", "traffic-control", "Interpreter id used for addressing, persistence, and metrics labels")
}
