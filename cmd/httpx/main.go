// Command httpx is a forwarding proxy, a CONNECT tunnel and a message
// dumper built on package httpx.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/k3nju/httpx/pkg/config"
	"github.com/k3nju/httpx/pkg/logger"
)

type rootOptions struct {
	configPath string
	logMode    string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:           "httpx",
		Short:         "HTTP/1.x message tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-mode") {
				c.Log.Mode = o.logMode
			}
			if cmd.Flags().Changed("log-level") {
				c.Log.Level = o.logLevel
			}
			if err := c.Validate(); err != nil {
				return err
			}

			l, err := logger.NewLogger(&c.Log)
			if err != nil {
				return err
			}
			logger.SetLogger(l)
			o.cfg = c

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&o.logMode, "log-mode", "", "log mode: console or file")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(newProxyCmd(o))
	root.AddCommand(newTunnelCmd(o))
	root.AddCommand(newDumpCmd(o))

	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error(err)
		_ = logger.Sync()
		os.Stderr.WriteString("httpx: " + err.Error() + "\n")
		os.Exit(1)
	}
}
