package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"slotbook/internal/config"
)

var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

type app struct {
	configFile string
	v          *viper.Viper
}

// load merges the config file, environment and bound flags into a Config.
func (a *app) load() (config.Config, error) {
	if err := config.ReadFile(a.v, a.configFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(a.v)
}

func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:           "slotbook",
		Short:         "Appointment booking service for a single business calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("database-url", "", "postgres connection url")
	_ = a.v.BindPFlag("log.level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("database.url", root.PersistentFlags().Lookup("database-url"))

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServerCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newScheduleCmd(a))

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slotbook %s (commit=%s, built=%s)\n", Version, CommitSHA, BuildDate)
		},
	}
}
