package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/irdumbs/jamcord/internal/config"
	"github.com/irdumbs/jamcord/internal/errors"
	"github.com/irdumbs/jamcord/internal/event"
	"github.com/irdumbs/jamcord/internal/logging"
	"github.com/irdumbs/jamcord/internal/session"
	"github.com/irdumbs/jamcord/internal/transport"
	"github.com/irdumbs/jamcord/internal/tui"
	"github.com/irdumbs/jamcord/internal/watch"
)

var (
	jamKind string
	jamName string
)

var jamCmd = &cobra.Command{
	Use:   "jam [room]",
	Short: "Start a local jam session in the terminal",
	Long: `Start a jam session in a local terminal room.

The session prompts you for a first submission: post a ` + "`code`" + ` message
or a ` + "```code block```" + `, then press ctrl+j to raise the confirm emblem and
run it. The interpreter's output appears on the shared console at the top
of the room.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJam,
}

func init() {
	rootCmd.AddCommand(jamCmd)

	jamCmd.Flags().StringVarP(&jamKind, "kind", "k", "", "interpreter kind (default from config)")
	jamCmd.Flags().StringVarP(&jamName, "name", "n", "you", "display name in the room")
}

func runJam(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	roomID := "local"
	if len(args) > 0 {
		roomID = args[0]
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bus := event.NewBus()
	local := tui.NewLocal(bus, transport.Member{ID: "local", Name: jamName})
	watches := watch.NewRegistry()

	reg := session.NewRegistry(cfg, local, bus, watches, nil, log)
	reg.Start()
	defer reg.Close()

	// Session creation blocks on the join prompt, which the user answers
	// through the TUI, so it has to run alongside it.
	created := make(chan error, 1)
	go func() {
		_, err := reg.Create(ctx, roomID, session.Options{Kind: jamKind, Owner: local.User()})
		created <- err
	}()

	if err := tui.Run(ctx, local, roomID, cfg.Session.ConfirmEmblem); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	cancel()

	select {
	case err := <-created:
		if err != nil && !errors.Is(err, errors.ErrNoSubmission) && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to start session: %w", err)
		}
	default:
		// still mid-create; Close tears it down
	}
	return nil
}

// newLogger builds the configured logger. File logging lands under the data
// directory unless a log dir is set; stderr would corrupt the TUI.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	dir := cfg.Logging.Dir
	if dir == "" {
		dir = filepath.Join(cfg.Paths.ResolveDataDir(), "logs")
	}
	return logging.NewLogger(dir, cfg.Logging.Level)
}
