package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/liveenity/liveenity"
	"github.com/liveenity/liveenity/blog"
)

var logger = log.New("liveenity")

var (
	envFile   string
	staticDir string
)

var rootCmd = &cobra.Command{
	Use:   "liveenity",
	Short: "Liveenity site server and content tools",
	Long: `liveenity serves the Liveenity site and blog, and manages the
blog_posts table behind it: schema setup, listing, publishing Markdown
drafts and regenerating the sitemap.

Configuration comes from the environment, optionally loaded from a .env file.`,
	Version:       liveenity.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := godotenv.Load(envFile)
		if err != nil && (cmd.Flags().Changed("env") || !errors.Is(err, fs.ErrNotExist)) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.SetVersionTemplate("liveenity {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "Environment file to load")
	rootCmd.PersistentFlags().StringVar(&staticDir, "static", "", "Static root (overrides STATIC_DIR)")
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig() (liveenity.SiteConfig, error) {
	cfg, err := liveenity.ConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	if staticDir != "" {
		cfg.StaticDir = staticDir
	}
	cfg = cfg.WithDefaults()
	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}

// openStore opens the configured database. The returned func closes it.
func openStore(cfg liveenity.SiteConfig) (*blog.Store, func(), error) {
	db, err := liveenity.OpenDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			logger.Warnf("close database: %v", err)
		}
	}
	return blog.NewStore(db), closeDB, nil
}
