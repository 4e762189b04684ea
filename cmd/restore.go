package cmd

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/Nadim147c/clipd/internal/capture"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/Nadim147c/clipd/pkg/clip"
	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(restoreCommand)
}

var restoreCommand = &cobra.Command{
	Use:   "restore id",
	Short: "Set content of given id to clipboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}

		st, err := store.Open()
		if err != nil {
			return err
		}

		c, err := st.Get(cmd.Context(), uint(id))
		if err != nil {
			return err
		}

		clipboard := capture.NewWaylandClipboard()
		if c.Kind == clip.KindText {
			return clipboard.WriteText(cmd.Context(), c.Text)
		}

		data, err := os.ReadFile(c.BlobPath)
		if err != nil {
			// blob deleted underneath the record: skip the write rather
			// than push garbage to the clipboard
			slog.Warn("blob missing, restore skipped", "id", c.ID, "path", c.BlobPath)
			return nil
		}

		return clipboard.WriteImage(cmd.Context(), data)
	},
}
