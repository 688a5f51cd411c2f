package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pbaille/rolodex/internal/api"
	"github.com/pbaille/rolodex/internal/config"
	"github.com/pbaille/rolodex/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rolodex",
		Short: "Personal CRM: ingest conversations, browse them as a filesystem",
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")

	rootCmd.AddCommand(personCmd())
	rootCmd.AddCommand(interactionCmd())
	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(lsCmd())
	rootCmd.AddCommand(catCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(tagsCmd())
	rootCmd.AddCommand(segmentsCmd())
	rootCmd.AddCommand(followupsCmd())
	rootCmd.AddCommand(completeCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(shellCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// confirm reads one line from stdin and reports whether it is a yes.
func confirm() bool {
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func getConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

func getStore() (*store.Store, config.Config, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, cfg, err
	}
	// Ensure directory exists
	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, cfg, fmt.Errorf("create db dir: %w", err)
	}
	s, err := store.New(cfg.DBPath)
	return s, cfg, err
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, cfg, err := getStore()
			if err != nil {
				return err
			}
			// Note: don't defer s.Close() as server runs indefinitely

			if addr == "" {
				addr = cfg.ServerAddr
			}
			server := api.New(s, addr, cfg.Model)
			return server.Run()
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}
