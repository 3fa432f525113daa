package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comalice/hsi"
	"github.com/comalice/hsi/internal/devtools"
	"github.com/comalice/hsi/internal/production"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the interpreter and feed it a sequence of events",
	Long:  `Compiles the sample machine, starts an interpreter against it, sends --events in order, and prints the resulting configuration after each. The final snapshot is persisted under --state-dir.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")
		dir, _ := cmd.Flags().GetString("state-dir")
		eventsFlag, _ := cmd.Flags().GetString("events")

		def, err := compile()
		if err != nil {
			fmt.Fprintln(os.Stderr, "compile:", err)
			os.Exit(1)
		}

		persister, err := production.NewJSONPersister(dir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "persister:", err)
			os.Exit(1)
		}

		publishCh := make(chan production.PublishedEvent, 64)
		publisher := production.NewChannelPublisher(publishCh)
		go drainPublished(publishCh)

		interp := hsi.Interpret(def,
			hsi.WithID(id),
			hsi.WithServices(hsi.ServiceFactories{"watchdog": watchdogFactory}),
			hsi.WithInspector(devtools.NewMetricsHook(nil)),
			hsi.WithInspector(devtools.NewTracingHook("hsidemo")),
		)

		if _, err := interp.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "start:", err)
			os.Exit(1)
		}
		printSnapshot("start", interp.Snapshot())

		for _, name := range splitEvents(eventsFlag) {
			if err := interp.TrySend(name); err != nil {
				fmt.Fprintf(os.Stderr, "send %s: %v\n", name, err)
				continue
			}
			snap := interp.Snapshot()
			printSnapshot(name, snap)
			_ = publisher.Publish(context.Background(), snap.Event(), id)
		}

		rec := production.NewRecord(id, interp.Snapshot())
		if err := persister.Save(context.Background(), rec); err != nil {
			fmt.Fprintln(os.Stderr, "persist:", err)
		}

		interp.Stop()
		_ = publisher.Close()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("events", "TIMER,TIMER,POWER_OFF,POWER_ON", "Comma-separated list of events to send in order")
}

func splitEvents(flag string) []string {
	var out []string
	for _, part := range strings.Split(flag, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printSnapshot(cause string, snap hsi.Snapshot) {
	var paths []string
	for _, d := range snap.Configuration() {
		paths = append(paths, d.Path)
	}
	fmt.Printf("[%s] configuration=%s changed=%v done=%v\n", cause, strings.Join(paths, ","), snap.Changed(), snap.Done())
}

func drainPublished(ch <-chan production.PublishedEvent) {
	for ev := range ch {
		fmt.Printf("published: interpreter=%s event=%s\n", ev.InterpreterID, ev.Event.Name)
	}
}
