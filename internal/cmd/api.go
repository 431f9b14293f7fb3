package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/petadm/internal/cmdutil"
	clierrors "github.com/salmonumbrella/petadm/internal/errors"
)

var apiMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

func newAPICmd() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "api <method> <path>",
		Short: "Send a raw authorized request",
		Long: `Send a request to any API path with the current session.

The request goes through the same pipeline as every other command, so an
expired access token is renewed and the request replayed.

Example:
  petadm api GET /v1/pets?nome=rex
  petadm api PUT /v1/pets/12 --data '{"nome":"Rex","idade":4}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			method := strings.ToUpper(args[0])
			if !apiMethods[method] {
				return &clierrors.ValidationError{
					Field:   "method",
					Message: fmt.Sprintf("%q is not one of GET, POST, PUT, PATCH, DELETE", args[0]),
				}
			}

			var body []byte
			if data != "" {
				resolved, err := cmdutil.ResolveJSONInput(data, stdinFromContext(ctx))
				if err != nil {
					return err
				}
				resolved = cmdutil.NormalizeJSONInput(resolved)
				if !json.Valid([]byte(resolved)) {
					return clierrors.NewUserError("--data is not valid JSON", `Pass a JSON value, e.g. --data '{"nome":"Rex"}'`)
				}
				body = []byte(resolved)
			}

			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			raw, err := svc.api.Raw(ctx, method, args[1], body)
			if err != nil {
				return wrapAPIError(svc, err, fmt.Sprintf("%s %s", method, args[1]), "", 0)
			}
			if len(raw) == 0 {
				return nil
			}

			var result interface{}
			if err := json.Unmarshal(raw, &result); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return printerForContext(ctx).Print(ctx, result)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body as JSON (inline, @file, or - for stdin)")
	return cmd
}
