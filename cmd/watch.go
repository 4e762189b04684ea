package cmd

import (
	"log/slog"

	"github.com/Nadim147c/clipd/internal/blob"
	"github.com/Nadim147c/clipd/internal/capture"
	"github.com/Nadim147c/clipd/internal/ingest"
	"github.com/Nadim147c/clipd/internal/ipc"
	"github.com/Nadim147c/clipd/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	Command.AddCommand(watchCommand)
}

var watchCommand = &cobra.Command{
	Use:   "watch",
	Short: "Watch the clipboard and screenshot folder",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.Info("clipd watch starting", "version", Command.Version)
		ctx := cmd.Context()

		st, err := store.Open()
		if err != nil {
			// the only startup-fatal condition
			return err
		}

		blobs, err := blob.Open()
		if err != nil {
			return err
		}

		clipboard := capture.NewWaylandClipboard()
		server := ipc.NewServer(st, clipboard)
		pipeline := ingest.New(st, blobs, server)

		// history is cleared on every daemon start
		if err := pipeline.Reset(ctx); err != nil {
			slog.Error("startup reset failed", "error", err)
		}

		watcher := capture.NewScreenshotWatcher(viper.GetString("screenshots"), pipeline)
		go watcher.Run(ctx)

		go func() {
			if err := server.Serve(ctx, viper.GetString("socket")); err != nil {
				slog.Error("ipc server failed", "error", err)
			}
		}()

		poller := capture.NewPoller(clipboard, pipeline)
		poller.Run(ctx, capture.PollInterval)
		return nil
	},
}
