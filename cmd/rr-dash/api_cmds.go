package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-dash/internal/dash/gateways/api"
)

// outcomeView is the printable form of a raw API outcome.
type outcomeView struct {
	Status  int    `json:"status" yaml:"status"`
	Payload any    `json:"payload" yaml:"payload"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// newVerbCmds returns one raw request command per HTTP verb.
func newVerbCmds(app appFunc) []*cobra.Command {
	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	cmds := make([]*cobra.Command, 0, len(methods))
	for _, m := range methods {
		cmds = append(cmds, newVerbCmd(m, app))
	}
	return cmds
}

func newVerbCmd(method string, app appFunc) *cobra.Command {
	var opts api.Options
	use := strings.ToLower(method) + " <path> [json-body]"
	args := cobra.RangeArgs(1, 2)
	if method == http.MethodGet {
		use = "get <path>"
		args = cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Send a %s request to /api/<path>", method),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			var body any
			if len(args) == 2 {
				if !json.Valid([]byte(args[1])) {
					return fmt.Errorf("request body is not valid JSON")
				}
				body = json.RawMessage(args[1])
			}

			out := a.client.Do(cmd.Context(), method, args[0], body, opts)
			view := outcomeView{Status: out.Status, Payload: rawJSON(out.Payload), Message: out.Message}
			err := render(a.streams.Out, a.output, view, func(w io.Writer) error {
				fmt.Fprintln(a.streams.Err, faint(fmt.Sprintf("%s %s -> %d", method, a.origin.APIURL(args[0]), out.Status)))
				if out.Payload == nil {
					return nil
				}
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(view.Payload)
			})
			if err != nil {
				return err
			}
			if !out.OK() {
				return fmt.Errorf("%s %s failed with status %d", method, args[0], out.Status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.SkipAuthRedirect, "skip-auth-redirect", false, "Do not treat 401 as an expired session")
	cmd.Flags().BoolVar(&opts.SkipErrorToast, "skip-error-toast", false, "Do not show a warning for error responses")
	return cmd
}
