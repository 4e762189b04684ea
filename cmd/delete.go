package cmd

import (
	"log/slog"

	"github.com/Nadim147c/clipd/internal/blob"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(deleteCommand)
}

var deleteCommand = &cobra.Command{
	Use:   "delete ...ids",
	Short: "Remove items from clipboard history",
	Example: `
  # Delete a single item with ID 42
  clipd delete 42

  # Delete multiple items with IDs 1, 5, and 10
  clipd delete 1 5 10

  # Delete a range of items (using shell expansion)
  clipd delete {20..25}
  `,
	Args: cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := cast.ToUintSliceE(args)
		if err != nil {
			return err
		}

		st, err := store.Open()
		if err != nil {
			return err
		}

		blobs, err := blob.Open()
		if err != nil {
			return err
		}

		n, refs, err := st.Delete(cmd.Context(), ids)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if err := blobs.Delete(ref); err != nil {
				slog.Error("failed to delete blob", "ref", ref, "error", err)
			}
		}

		slog.Info("Clipboard history deleted", "deleted-items", n)
		return nil
	},
}
