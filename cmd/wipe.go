package cmd

import (
	"log/slog"

	"github.com/Nadim147c/clipd/internal/blob"
	"github.com/Nadim147c/clipd/internal/ingest"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(wipeCommand)
}

var wipeCommand = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all clipboard history",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open()
		if err != nil {
			return err
		}

		blobs, err := blob.Open()
		if err != nil {
			return err
		}

		if err := ingest.New(st, blobs, nil).Reset(cmd.Context()); err != nil {
			return err
		}

		slog.Info("Clipboard history wiped")
		return nil
	},
}
