package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"waggle_server/config"
	"waggle_server/models"
	"waggle_server/services"

	"github.com/spf13/cobra"
)

// NewReplayCommand creates the replay command.
func NewReplayCommand() *cobra.Command {
	var noNotify bool

	cmd := &cobra.Command{
		Use:   "replay <event.json>",
		Short: "Run one like event through the match pipeline",
		Long: `Read a like event {"dogId": "...", "before": {"likes": [...]}, "after": {"likes": [...]}}
from a file ("-" for stdin) and process it exactly as a delivered trigger would.

Example:
  waggle replay ./event.json
  cat event.json | waggle replay - --no-notify`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := readLikeEvent(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, cfg.HandlerTimeout)
			defer cancel()

			app, err := NewApp(ctx, cfg)
			if err != nil {
				return err
			}
			if noNotify {
				app.Coordinator.Notifier = nil
			}
			return runReplay(ctx, app.Coordinator, event, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&noNotify, "no-notify", false, "create matches without sending notifications")
	return cmd
}

func readLikeEvent(stdin io.Reader, path string) (models.LikeEvent, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return models.LikeEvent{}, fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var event models.LikeEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return models.LikeEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if event.DogID == "" {
		return models.LikeEvent{}, fmt.Errorf("event has no dogId")
	}
	return event, nil
}

func runReplay(ctx context.Context, handler services.LikeEventHandler, event models.LikeEvent, out io.Writer) error {
	result, err := handler.HandleLikeUpdate(ctx, event)
	if result != nil {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	}
	return err
}
