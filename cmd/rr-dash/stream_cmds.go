package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-dash/internal/dash/domain"
	"github.com/haukened/rr-dash/internal/dash/gateways/live"
	"github.com/haukened/rr-dash/internal/dash/services/views"
)

// pulseTick is how often running pulse animations advance.
const pulseTick = 100 * time.Millisecond

var errStreamLost = errors.New("live stream closed by server")

func newTailCmd(app appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow a live stream",
	}

	logs := &cobra.Command{
		Use:   "logs",
		Short: "Print queries as they are resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v, err := a.queryLogView()
			if err != nil {
				return err
			}
			// The live stream only feeds the first page.
			if err := v.Fetch(cmd.Context(), 1); err != nil {
				return err
			}

			var mu sync.Mutex
			ch := a.channel(live.StreamQueryLog, v.SetStreamState)
			handler := live.QueryLog(a.logger, func(e domain.QueryLogEvent) {
				if !v.Push(e) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				printEvent(a.streams.Out, a.output, e)
			})
			return follow(cmd.Context(), a, ch, handler, nil)
		},
	}

	pulse := &cobra.Command{
		Use:   "pulse",
		Short: "Print query hops between clients, the resolver and upstreams",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			board := views.NewPulseBoard(views.DefaultPulseStep)
			ch := a.channel(live.StreamPulse, nil)
			handler := live.Pulse(a.logger, func(e domain.PulseEvent) {
				if board.Apply(e) == 0 {
					return
				}
				fmt.Fprintln(a.streams.Out, pulseLine(e))
			})

			tick := func(ctx context.Context) {
				ticker := time.NewTicker(pulseTick)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						board.Tick()
					}
				}
			}
			return follow(cmd.Context(), a, ch, handler, tick)
		},
	}

	cmd.AddCommand(logs, pulse)
	return cmd
}

// follow subscribes ch and blocks until the context ends or the stream
// closes. background, when set, runs for the lifetime of the subscription.
func follow(ctx context.Context, a *Application, ch *live.Channel, handler live.Handler, background func(context.Context)) error {
	if err := ch.Subscribe(ctx, handler); err != nil {
		return err
	}
	fmt.Fprintln(a.streams.Err, faint("Following live stream, press Ctrl+C to stop"))

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if background != nil {
		go background(bgCtx)
	}

	select {
	case <-ctx.Done():
		return ch.Close()
	case <-ch.Done():
		if ch.State() == domain.StreamClosedError {
			return errStreamLost
		}
		return nil
	}
}

func printEvent(w io.Writer, format string, e domain.QueryLogEvent) {
	if format == outputText || format == "" {
		fmt.Fprintln(w, strings.ReplaceAll(logRow(e), "\t", "  "))
		return
	}
	// Structured formats emit one document per event.
	if format == outputYAML {
		fmt.Fprintln(w, "---")
	}
	_ = render(w, format, e, nil)
}

func pulseLine(e domain.PulseEvent) string {
	var hops []string
	if e.Client {
		hops = append(hops, e.IP+" -> "+views.NodeDNS)
	}
	if e.DNS {
		hops = append(hops, views.NodeDNS+" -> "+e.IP)
	}
	if e.Upstream {
		hops = append(hops, views.NodeDNS+" -> "+views.NodeUpstream)
	}
	return strings.Join(hops, ", ")
}
