package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/salmonumbrella/petadm/internal/cmdutil"
	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
	"github.com/salmonumbrella/petadm/internal/session"
	"github.com/salmonumbrella/petadm/internal/ui"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the API session",
		Long: `Log in, inspect and end the Pet Manager API session.

Tokens are kept in the configured credential store (the system keyring by
default) and renewed automatically while the refresh token is valid.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthRefreshCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		username      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with username and password",
		Long: `Authenticate with the Pet Manager API.

The password is read without echo from the terminal, or from stdin with
--password-stdin:

  echo "$PASSWORD" | petadm auth login -u admin --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			username, password, err := readCredentials(ctx, username, passwordStdin)
			if err != nil {
				return err
			}

			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			if _, err := svc.manager.Login(ctx, username, password); err != nil {
				var apiErr *petapi.APIError
				if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusBadRequest) {
					return clierrors.InvalidCredentialsError(err)
				}
				return fmt.Errorf("login failed: %w", err)
			}

			ui.FromContext(ctx).Success("Logged in as %s", username)
			return printerForContext(ctx).Print(ctx, authStatus(svc.manager))
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (prompted when omitted)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

// readCredentials fills in the username and password from flags, stdin or
// terminal prompts.
func readCredentials(ctx context.Context, username string, passwordStdin bool) (string, string, error) {
	stdin := stdinFromContext(ctx)
	stderr := stderrFromContext(ctx)
	tty, isTTY := terminalFd(stdin)

	username = strings.TrimSpace(username)
	if username == "" {
		if passwordStdin || !isTTY {
			return "", "", &clierrors.ValidationError{Field: "username", Message: "required when not running in a terminal (use --username)"}
		}
		_, _ = fmt.Fprint(stderr, "Username: ")
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
		if username == "" {
			return "", "", &clierrors.ValidationError{Field: "username", Message: "cannot be empty"}
		}
	}

	var password string
	switch {
	case passwordStdin:
		p, err := cmdutil.ReadInputSource("-", stdin)
		if err != nil {
			return "", "", err
		}
		password = p
	case isTTY:
		_, _ = fmt.Fprint(stderr, "Password: ")
		b, err := term.ReadPassword(tty)
		_, _ = fmt.Fprintln(stderr)
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(b)
	default:
		return "", "", clierrors.NewUserError("no terminal to prompt for a password", "Pipe the password in with --password-stdin")
	}

	if password == "" {
		return "", "", &clierrors.ValidationError{Field: "password", Message: "cannot be empty"}
	}
	return username, password, nil
}

func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}
			if err := svc.manager.Logout(ctx); err != nil {
				return err
			}

			return printerForContext(ctx).Print(ctx, map[string]interface{}{
				"status":  "success",
				"message": "Logged out",
			})
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Long: `Show whether a session is stored, for which user, and when the access
token expires. Token values are never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}
			return printerForContext(ctx).Print(ctx, authStatus(svc.manager))
		},
	}
}

func authStatus(m *session.Manager) map[string]interface{} {
	state := m.State()
	result := map[string]interface{}{
		"authenticated": state.Authenticated,
	}
	if !state.Authenticated {
		return result
	}
	if state.User != nil {
		result["username"] = state.User.Username
	}
	result["refreshable"] = m.RefreshToken() != ""
	if exp, ok := session.TokenExpiry(m.Token()); ok {
		result["expires_at"] = exp.UTC().Format(time.RFC3339)
		result["expired"] = !time.Now().Before(exp)
	}
	return result
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Renew the access token now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := servicesFromContext(ctx)
			if err != nil {
				return err
			}

			tokens, err := svc.manager.Refresh(ctx)
			if err != nil {
				if errors.Is(err, session.ErrNoRefreshToken) {
					return clierrors.AuthRequiredError(err)
				}
				var apiErr *petapi.APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
					// Same outcome as a rejected automatic refresh.
					if logoutErr := svc.manager.Logout(ctx); logoutErr != nil {
						return errors.Join(clierrors.SessionExpiredError(err), logoutErr)
					}
					return clierrors.SessionExpiredError(err)
				}
				return wrapAPIError(svc, err, "refresh session", "", 0)
			}

			ui.FromContext(ctx).Success("Session renewed")
			result := authStatus(svc.manager)
			if tokens.ExpiresIn > 0 {
				result["expires_in"] = tokens.ExpiresIn
			}
			return printerForContext(ctx).Print(ctx, result)
		},
	}
}
