package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comalice/hsi"
	"github.com/comalice/hsi/internal/production"
)

var visualizeCmd = &cobra.Command{
	Use:   "visualize",
	Short: "Export the sample machine's structure as DOT or JSON",
	Long:  `Sends --events against a fresh interpreter and renders the resulting configuration, highlighting active states when --format=dot.`,
	Run: func(cmd *cobra.Command, args []string) {
		format, _ := cmd.Flags().GetString("format")
		eventsFlag, _ := cmd.Flags().GetString("events")

		def, err := compile()
		if err != nil {
			fmt.Fprintln(os.Stderr, "compile:", err)
			os.Exit(1)
		}
		config := buildConfig()

		interp := hsi.Interpret(def, hsi.WithID("visualize"))
		if _, err := interp.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "start:", err)
			os.Exit(1)
		}
		for _, name := range splitEvents(eventsFlag) {
			_ = interp.TrySend(name)
		}

		var current []string
		for _, d := range interp.Snapshot().Configuration() {
			current = append(current, d.Path)
		}
		interp.Stop()

		visualizer := &production.DefaultVisualizer{}
		switch strings.ToLower(format) {
		case "json":
			data, err := visualizer.ExportJSON(config)
			if err != nil {
				fmt.Fprintln(os.Stderr, "export json:", err)
				os.Exit(1)
			}
			fmt.Println(string(data))
		default:
			fmt.Println(visualizer.ExportDOT(config, current))
		}
	},
}

func init() {
	rootCmd.AddCommand(visualizeCmd)
	visualizeCmd.Flags().String("format", "dot", "Output format: dot or json")
	visualizeCmd.Flags().String("events", "", "Comma-separated list of events to apply before rendering")
}
