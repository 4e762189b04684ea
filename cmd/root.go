package cmd

import (
	"context"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/adrg/xdg"
	"github.com/carapace-sh/carapace"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	pfset := Command.PersistentFlags()
	pfset.StringP("database", "d", "XDG_DATA_HOME/clipd", "set database location directory")
	pfset.StringP("screenshots", "s", "XDG_DESKTOP_DIR", "set watched screenshot directory")
	pfset.String("socket", "DATABASE/clipd.sock", "set ipc socket path")
	pfset.CountP("verbose", "v", "set log level")
	pfset.BoolP("quiet", "q", false, "suppress all the logs")

	viper.SetEnvPrefix("clipd")
	viper.AutomaticEnv()

	carapace.Gen(Command)
}

// Command is the root command for clipd
var Command = &cobra.Command{
	Use:   "clipd",
	Short: "A dead simple clipboard history daemon",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		viper.BindPFlags(cmd.Flags())

		level := log.ErrorLevel - (log.Level(viper.GetInt("verbose") * 4))
		if viper.GetBool("quiet") {
			level = math.MaxInt
		}

		logger := log.NewWithOptions(os.Stderr, log.Options{
			TimeFormat: time.RFC822,
			Level:      level,
		})

		slog.SetDefault(slog.New(logger))

		viper.SetDefault("database", filepath.Join(xdg.DataHome, "clipd"))
		viper.SetDefault("screenshots", xdg.UserDirs.Desktop)
		viper.SetDefault("socket", filepath.Join(viper.GetString("database"), "clipd.sock"))

		slog.Info("Logger has been setup", "level", level)

		return nil
	},
}

// Execute runs the cobra cli
func Execute(version string) {
	err := fang.Execute(
		context.Background(),
		Command,
		fang.WithNotifySignal(syscall.SIGINT, syscall.SIGTERM),
		fang.WithVersion(version),
	)
	if err != nil {
		os.Exit(1)
	}
}
