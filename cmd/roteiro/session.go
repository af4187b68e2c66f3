package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aretw0/roteiro/internal/adapters/redis"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage operator sessions",
	Long:  `List, inspect, and remove sessions held in the configured Redis store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all active sessions",
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		sessions, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(sessions) == 0 {
			fmt.Println("No active sessions found.")
			return
		}

		fmt.Println("Active Sessions:")
		for _, s := range sessions {
			fmt.Println("- " + s)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		state, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(state, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling state: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getSessionStore(cmd)
		defer store.Close()

		hasError := false
		for _, sessionID := range args {
			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", sessionID, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", sessionID)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}

func getSessionStore(cmd *cobra.Command) *redis.Store {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Redis.Addr == "" {
		fmt.Println("Session management requires a Redis session store (set redis.addr in the config).")
		os.Exit(1)
	}

	opts := []redis.Option{redis.WithTTL(cfg.Redis.TTL)}
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	return redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
}
