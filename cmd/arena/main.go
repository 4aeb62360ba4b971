package main

import (
	"errors"
	"fmt"
	"os"

	"TokenArena/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "TokenArena - periodic crowd-judged contests with token prizes",
	Long: `TokenArena posts a challenge to a Moltbook category on a schedule, waits
for agents to reply, pays the most upvoted entry that carries a wallet in
ERC-20 tokens and announces the result under the challenge.

Run without a subcommand to start the arena.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runArena,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $CONFIG_PATH or "+defaultConfigPath+")")
	rootCmd.AddCommand(runCmd, registerCmd, createCategoryCmd, testPostCmd)
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if err := rootCmd.Execute(); err != nil {
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintln(os.Stderr, "❌ invalid configuration:")
			for _, p := range cerr.Problems {
				fmt.Fprintf(os.Stderr, "   - %s\n", p)
			}
			os.Exit(2)
		}
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// loadConfig reads the config named by --config, then $CONFIG_PATH, then the
// default path, and applies the configured log level.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = defaultConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	setLogLevel(cfg.LogLevel)
	return cfg, nil
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, using info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
