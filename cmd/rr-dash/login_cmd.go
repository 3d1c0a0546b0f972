package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/haukened/rr-dash/internal/dash/config"
	"github.com/haukened/rr-dash/internal/dash/services/views"
)

var errUsernameRequired = errors.New("username required: pass it as an argument or set DASH_USERNAME")

// readPassword reads a password without echo; replaced in tests.
var readPassword = func(fd int) ([]byte, error) {
	return term.ReadPassword(fd)
}

func newLoginCmd(app appFunc, cfg *config.AppConfig) *cobra.Command {
	var remember bool
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and store the session cookie",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			v := a.loginView()

			username := cfg.Auth.Username
			if len(args) == 1 {
				username = args[0]
			}
			if username == "" {
				username = v.RememberedUsername()
			}
			if username == "" {
				return errUsernameRequired
			}

			password := cfg.Auth.Password
			if password == "" {
				p, err := promptPassword(a.streams, username)
				if err != nil {
					return err
				}
				password = p
			}

			err := v.Login(cmd.Context(), username, password, remember)
			var limited *views.RateLimitedError
			switch {
			case errors.As(err, &limited):
				return fmt.Errorf("too many attempts, try again in %s", limited.Remaining(a.clock.Now()))
			case err != nil:
				return err
			}

			if err := a.session.Persist(); err != nil {
				return fmt.Errorf("failed to store session: %w", err)
			}
			fmt.Fprintf(a.streams.Out, "%s signed in as %s\n", green("OK"), bold(username))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the username for next time")
	return cmd
}

// promptPassword reads a password from the terminal without echo, or a
// single line from a non-interactive stdin.
func promptPassword(ios streams, username string) (string, error) {
	if f, ok := ios.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(ios.Err, "Password for %s: ", username)
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(ios.Err)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(ios.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
