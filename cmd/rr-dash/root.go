package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/haukened/rr-dash/internal/dash/config"
)

// appFunc returns the application built for the running command.
type appFunc func() *Application

// newRootCmd builds the command tree. The returned closer releases whatever
// the command opened and must run after Execute.
func newRootCmd(cfg *config.AppConfig, ios streams) (*cobra.Command, func() error) {
	var (
		opts buildOptions
		app  *Application
	)

	root := &cobra.Command{
		Use:           appName,
		Short:         "Operator CLI for the rr-dns dashboard API",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.NoColor {
				color.NoColor = true
			}
			a, err := buildApplication(cfg, ios, opts)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
	}
	root.SetIn(ios.In)
	root.SetOut(ios.Out)
	root.SetErr(ios.Err)

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "Suppress warning toasts (a count is printed at exit)")
	flags.BoolVar(&opts.NoColor, "no-color", false, "Disable coloured output")
	flags.StringVarP(&opts.Output, "output", "o", outputText, "Output format: text, json or yaml")

	get := func() *Application { return app }
	root.AddCommand(newVerbCmds(get)...)
	root.AddCommand(
		newClientsCmd(get),
		newPauseCmd(get),
		newResumeCmd(get),
		newStatusCmd(get),
		newWhitelistCmd(get),
		newLogsCmd(get),
		newTailCmd(get),
		newLoginCmd(get, cfg),
		newVersionCmd(get),
	)

	closer := func() error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	}
	return root, closer
}
