// Command arbor plays mutation scripts against a headless root and prints
// the trace of what the root did.
//
// Configuration is read, lowest precedence first, from .arbor.yaml in the
// working directory (or the file named by --config), ARBOR_* environment
// variables and flags. Keys:
//
//	frameloop   always, demand or never; overrides the script's config
//	width       surface width in pixels
//	height      surface height in pixels
//	log-level   debug, info, warn or error
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/phanxgames/arbor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli holds the state shared by the commands of one invocation.
type cli struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:           "arbor",
		Short:         "Play scene-graph mutation scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.initConfig(); err != nil {
				return err
			}
			return c.initLogger(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default .arbor.yaml)")
	root.PersistentFlags().StringP("log-level", "l", "warn", "log level (debug, info, warn, error)")
	_ = c.v.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newPlayCmd(c))
	return root
}

// initConfig reads the config file, if any, and enables ARBOR_ variables.
func (c *cli) initConfig() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.AddConfigPath(".")
		c.v.SetConfigType("yaml")
		c.v.SetConfigName(".arbor")
	}
	c.v.SetEnvPrefix("ARBOR")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// initLogger routes the arbor logger to a text handler at the configured
// level.
func (c *cli) initLogger(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	arbor.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

// applyConfig overlays the keys set in the config file, the environment or
// flags onto cfg.
func (c *cli) applyConfig(cfg *arbor.Config) {
	if c.v.IsSet("frameloop") {
		cfg.Frameloop = arbor.FrameLoop(c.v.GetString("frameloop"))
	}
	if c.v.IsSet("width") {
		cfg.Width = c.v.GetFloat64("width")
	}
	if c.v.IsSet("height") {
		cfg.Height = c.v.GetFloat64("height")
	}
}
