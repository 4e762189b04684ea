package cmd

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/Nadim147c/clipd/internal/ingest"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/Nadim147c/clipd/pkg/clip"
	"github.com/spf13/cobra"
)

func init() {
	Command.AddCommand(historyCommand)
}

func preview(c clip.Clip) string {
	if c.Kind == clip.KindImage {
		return "[image] " + filepath.Base(c.BlobPath)
	}

	fields := strings.Fields(c.Text)

	out := strings.Join(fields, " ")
	if len(out) > 100 {
		out = out[:100]
	}
	return out
}

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List recent clipboard history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := store.Open()
		if err != nil {
			return err
		}

		clips, err := st.Recent(cmd.Context(), ingest.RetentionCap)
		if err != nil {
			return err
		}
		for c := range slices.Values(clips) {
			fmt.Printf("%d\t%s\n", c.ID, preview(c))
		}
		return nil
	},
}
