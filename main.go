package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"animehub-client/internal/api"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	if errors.Is(err, api.ErrUnauthenticated) {
		fmt.Fprintln(w, "not logged in, run `animehub login`")
		return
	}
	fmt.Fprintln(w, "error:", err)
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "animehub",
		Short:         "AnimeHub terminal client",
		Long:          "Chat, reviews and profile management for AnimeHub from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "API base URL (overrides ANIMEHUB_BASE_URL)")
	pf.StringVar(&flags.state, "state", "", "state store: sqlite, postgres, redis or memory")
	pf.StringVar(&flags.push, "push", "", "push transport: socketio or websocket")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level")

	root.AddCommand(
		newLoginCmd(&flags),
		newLogoutCmd(&flags),
		newWhoamiCmd(&flags),
		newChatsCmd(&flags),
		newSearchCmd(&flags),
		newSendCmd(&flags),
		newDMCmd(&flags),
		newReviewsCmd(&flags),
		newProfileCmd(&flags),
	)
	return root
}

// withApp wires the app for one command run and closes it afterwards.
func withApp(flags *globalFlags, quiet bool, fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := newApp(ctx, *flags, quiet)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(ctx, cmd, a, args)
	}
}
