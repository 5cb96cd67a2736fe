package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/uniast/syntax"
	"github.com/dhamidi/uniast/workspace"
)

func newWatchCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-parse files under a directory as they change and report syntax errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws := workspace.New(args[0])
			watcher := workspace.NewWatcher(ws, interval, printEvent)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Watching %s every %s\n", ws.Root(), interval)
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "poll interval")

	return cmd
}

func printEvent(e workspace.Event) {
	switch {
	case e.Removed():
		fmt.Printf("%s %s\n", warnColor.Sprint("[DEL] "), e.Path)
	case e.Document.Err != nil:
		fmt.Printf("%s %s: %v\n", errorColor.Sprint("[FAIL]"), e.Path, e.Document.Err)
	case e.Document.Program.HasError:
		index := syntax.NewLineIndex(string(e.Document.Content))
		for _, n := range syntax.ErrorNodes(e.Document.Program.Root) {
			pos := index.Position(n.Start)
			fmt.Printf("%s %s:%d:%d: %s\n", errorColor.Sprint("[ERR] "), e.Path, pos.Line+1, pos.Column+1, describeError(n))
		}
	default:
		fmt.Printf("%s %s\n", okColor.Sprint("[OK]  "), e.Path)
	}
}
