package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/comalice/hsi"
	"github.com/comalice/hsi/internal/devtools"
	"github.com/comalice/hsi/internal/production"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interpreter continuously with a metrics endpoint",
	Long:  `Starts the interpreter, ticks TIMER on --interval, and exposes its transition/event/action-error counters on --addr under /metrics until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		id, _ := cmd.Flags().GetString("id")
		dir, _ := cmd.Flags().GetString("state-dir")
		addr, _ := cmd.Flags().GetString("addr")
		interval, _ := cmd.Flags().GetDuration("interval")

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

		reg := prometheus.NewRegistry()
		interp := hsi.Interpret(def,
			hsi.WithID(id),
			hsi.WithServices(hsi.ServiceFactories{"watchdog": watchdogFactory}),
			hsi.WithInspector(devtools.NewMetricsHook(reg)),
			hsi.WithInspector(devtools.NewTracingHook("hsidemo")),
		)
		if _, err := interp.Start(); err != nil {
			fmt.Fprintln(os.Stderr, "start:", err)
			os.Exit(1)
		}
		printSnapshot("start", interp.Snapshot())

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintln(w, interp.Status().String())
		})
		srv := &http.Server{Addr: addr, Handler: mux}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Println("serving metrics on", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		for {
			select {
			case <-ticker.C:
				_ = interp.TrySend("TIMER")
				printSnapshot("TIMER", interp.Snapshot())

			case err := <-serverErrors:
				fmt.Fprintln(os.Stderr, "server error:", err)
				interp.Stop()
				os.Exit(1)

			case sig := <-shutdown:
				fmt.Println("\nshutting down, signal:", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					fmt.Fprintln(os.Stderr, "graceful shutdown failed:", err)
				}

				rec := production.NewRecord(id, interp.Snapshot())
				if err := persister.Save(context.Background(), rec); err != nil {
					fmt.Fprintln(os.Stderr, "persist:", err)
				}
				interp.Stop()
				return
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to serve /metrics and /healthz on")
	serveCmd.Flags().Duration("interval", 2*time.Second, "Interval between automatic TIMER sends")
}
