package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro"
	httpAdapter "github.com/aretw0/roteiro/internal/adapters/http"
	"github.com/aretw0/roteiro/internal/cli"
	"github.com/aretw0/roteiro/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the roteiro HTTP server: script CRUD, bundle import/export,
session orchestration and live change events over SSE.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}

		logger := logging.New(logging.ParseLevel(cfg.LogLevel))

		app, err := cli.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			fmt.Printf("Error initializing roteiro: %v\n", err)
			os.Exit(1)
		}
		defer app.Close()

		handler := httpAdapter.NewHandler(app.Repo, app.Sessions, app.Bus,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(roteiro.Version),
		)

		srv := &http.Server{
			Addr:    ":" + strconv.Itoa(cfg.Server.Port),
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Roteiro Server on %s\n", srv.Addr)
			fmt.Printf("Storage backend: %s\n", cfg.Storage.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Roteiro Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 8322, "Port to listen on")
}
