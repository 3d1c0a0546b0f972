package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-dash/internal/dash/domain"
	"github.com/haukened/rr-dash/internal/dash/services/views"
)

func newClientsCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List the clients seen by the resolver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.clientsView()
			if err := v.Refresh(cmd.Context()); err != nil {
				return err
			}
			cards := v.Cards()
			return render(a.streams.Out, a.output, cards, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "IP\tNAME\tQUERIES\tBLOCKED\tTOP DOMAIN")
				for _, c := range cards {
					top := "-"
					if len(c.TopDomains) > 0 {
						top = fmt.Sprintf("%s (%d)", c.TopDomains[0].Domain, c.TopDomains[0].Count)
					}
					name := c.Name
					if name == "" {
						name = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", c.IP, name, c.Queries, c.Blocked, top)
				}
				return tw.Flush()
			})
		},
	}
}

// pauseSummary is the printable pause state.
type pauseSummary struct {
	Paused      bool `json:"paused" yaml:"paused"`
	SecondsLeft int  `json:"secondsLeft" yaml:"secondsLeft"`
	CanResume   bool `json:"canResume" yaml:"canResume"`
}

func printPause(a *Application, v *views.PauseView) error {
	left := v.TimeLeft()
	s := pauseSummary{Paused: v.Paused(), SecondsLeft: int(left.Round(time.Second) / time.Second), CanResume: v.CanResume()}
	return render(a.streams.Out, a.output, s, func(w io.Writer) error {
		if !s.Paused {
			_, err := fmt.Fprintln(w, green("Blocking active"))
			return err
		}
		hint := ""
		if s.CanResume {
			hint = faint(fmt.Sprintf(" (run '%s resume' to resume now)", appName))
		}
		_, err := fmt.Fprintf(w, "%s for %s%s\n", yellow("Blocking paused"), left.Round(time.Second), hint)
		return err
	})
}

func newPauseCmd(app appFunc) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "pause <seconds>",
		Short: "Pause blocking for a number of seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			secs, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid duration %q: %w", args[0], err)
			}
			v := a.pauseView()
			if err := v.Pause(cmd.Context(), secs); err != nil {
				return err
			}
			if err := printPause(a, v); err != nil {
				return err
			}
			if !wait {
				return nil
			}
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for v.Paused() {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-ticker.C:
					fmt.Fprintf(a.streams.Err, "\r%s left ", v.TimeLeft().Round(time.Second))
				}
			}
			fmt.Fprintln(a.streams.Err)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Show the countdown until blocking resumes")
	return cmd
}

func newResumeCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume blocking now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.pauseView()
			if err := v.Resume(cmd.Context()); err != nil {
				return err
			}
			return printPause(a, v)
		},
	}
}

func newStatusCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether blocking is paused",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.pauseView()
			if err := v.Status(cmd.Context()); err != nil {
				return err
			}
			return printPause(a, v)
		},
	}
}

func newWhitelistCmd(app appFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "whitelist",
		Aliases: []string{"allow"},
		Short:   "Manage the allow list",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List allowed domains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.whitelistView()
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			domains := v.Domains()
			return render(a.streams.Out, a.output, domains, func(w io.Writer) error {
				for _, d := range domains {
					fmt.Fprintln(w, d)
				}
				return nil
			})
		},
	}

	add := &cobra.Command{
		Use:   "add <domain>...",
		Short: "Allow one or more domains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.whitelistView()
			for _, d := range args {
				if err := v.Add(cmd.Context(), d); err != nil {
					return err
				}
				fmt.Fprintf(a.streams.Out, "%s %s\n", green("+"), d)
			}
			return nil
		},
	}

	remove := &cobra.Command{
		Use:     "remove <domain>...",
		Aliases: []string{"rm"},
		Short:   "Remove one or more domains",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.whitelistView()
			for _, d := range args {
				if err := v.Remove(cmd.Context(), d); err != nil {
					return err
				}
				fmt.Fprintf(a.streams.Out, "%s %s\n", red("-"), d)
			}
			return nil
		},
	}

	var hosts bool
	imp := &cobra.Command{
		Use:   "import <file|->",
		Short: "Allow every domain listed in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			var r io.Reader = a.streams.In
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r = f
			}
			format := views.FormatPlain
			if hosts {
				format = views.FormatHosts
			}
			v := a.whitelistView()
			if err := v.Load(cmd.Context()); err != nil {
				return err
			}
			res, err := v.Import(cmd.Context(), r, format)
			if rerr := render(a.streams.Out, a.output, res, func(w io.Writer) error {
				_, werr := fmt.Fprintf(w, "added %d, already present %d, failed %d\n", len(res.Added), len(res.Skipped), len(res.Failed))
				return werr
			}); rerr != nil {
				return rerr
			}
			return err
		},
	}
	imp.Flags().BoolVar(&hosts, "hosts", false, "Parse the file as /etc/hosts syntax")

	cmd.AddCommand(list, add, remove, imp)
	return cmd
}

func newLogsCmd(app appFunc) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show one page of the query log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v, err := a.queryLogView()
			if err != nil {
				return err
			}
			if err := v.Fetch(cmd.Context(), page); err != nil {
				return err
			}
			entries := v.Entries()
			return render(a.streams.Out, a.output, domain.LogPage{Logs: entries, Total: v.Total()}, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tCLIENT\tTYPE\tDOMAIN\tRESULT\tMS")
				for _, e := range entries {
					fmt.Fprintln(tw, logRow(e))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(w, faint(fmt.Sprintf("page %d, %d entries total", v.Page(), v.Total())))
				return err
			})
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	return cmd
}

// logRow formats one event as a tab-separated table row.
func logRow(e domain.QueryLogEvent) string {
	return strings.Join([]string{
		e.Timestamp.Local().Format(time.TimeOnly),
		e.Client,
		e.Type,
		e.Domain,
		logResult(e),
		strconv.FormatFloat(e.ElapsedMs, 'f', 1, 64),
	}, "\t")
}

func logResult(e domain.QueryLogEvent) string {
	switch {
	case e.Blocked:
		return red("blocked")
	case e.Cached:
		return faint("cached")
	default:
		return green("allowed")
	}
}

// versionSummary is the printable version check.
type versionSummary struct {
	Client          string               `json:"client" yaml:"client"`
	Server          string               `json:"server,omitempty" yaml:"server,omitempty"`
	Latest          *domain.ReleaseNotes `json:"latest,omitempty" yaml:"latest,omitempty"`
	UpdateAvailable bool                 `json:"updateAvailable" yaml:"updateAvailable"`
}

func newVersionCmd(app appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show client, server and latest release versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			info := a.versionView().Check(cmd.Context())
			s := versionSummary{Client: version, Server: info.Server, Latest: info.Latest, UpdateAvailable: info.UpdateAvailable}
			return render(a.streams.Out, a.output, s, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s\n", bold(appName), version)
				server := s.Server
				if server == "" {
					server = faint("no data available")
				}
				fmt.Fprintf(w, "server  %s\n", server)
				if s.Latest != nil {
					line := s.Latest.Version
					if s.UpdateAvailable {
						line += " " + yellow("(update available)")
					}
					fmt.Fprintf(w, "latest  %s\n", line)
				}
				return nil
			})
		},
	}
}
