package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"earnedpay/internal/identity"
	"earnedpay/internal/session"
)

func newLoginCmd(e *env) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an identity token",
		Long: `Store an ID token from the identity provider and resolve the account.
Pass "--token -" to read the token from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("read token: %w", err)
				}
				token = line
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return errors.New("an identity token is required (--token)")
			}
			if err := e.tokens.Save(token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			return printSessionStatus(cmd.OutOrStdout(), e.session.Snapshot())
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Identity token, or - for stdin")
	return cmd
}

func newRegisterCmd(e *env) *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create the EarnedPay account for the signed-in identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			if err := e.session.Register(cmd.Context(), e.api, session.Role(strings.ToLower(role))); err != nil {
				return err
			}
			return printSessionStatus(cmd.OutOrStdout(), e.session.Snapshot())
		},
	}
	cmd.Flags().StringVar(&role, "role", string(session.RoleWorker), "Account role: worker or employer")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.session.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			return printSessionStatus(cmd.OutOrStdout(), e.session.Snapshot())
		},
	}
}

// newDevTokenCmd mints tokens the backend accepts when it shares the
// development IDENTITY_SECRET.
func newDevTokenCmd() *cobra.Command {
	var (
		secret string
		claims identity.Claims
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint a development identity token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("IDENTITY_SECRET")
			}
			if secret == "" {
				return errors.New("--secret or IDENTITY_SECRET is required")
			}
			if strings.TrimSpace(claims.UID) == "" {
				return errors.New("--uid is required")
			}
			token, err := identity.Mint(secret, claims, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to IDENTITY_SECRET)")
	cmd.Flags().StringVar(&claims.UID, "uid", "", "Identity uid")
	cmd.Flags().StringVar(&claims.PhoneNumber, "phone", "", "Phone number claim")
	cmd.Flags().StringVar(&claims.Email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	return cmd
}

func printSessionStatus(w io.Writer, snap session.Snapshot) error {
	switch {
	case snap.Identity == nil:
		fmt.Fprintln(w, "Not signed in. Run: earnedpay login --token <id token>")
	case snap.NeedsRegistration():
		fmt.Fprintf(w, "Signed in as %s, but no EarnedPay account exists yet.\n", snap.Identity.UID())
		fmt.Fprintln(w, "Run: earnedpay register --role worker|employer")
	default:
		if p, ok := snap.Worker(); ok {
			fmt.Fprintf(w, "Signed in as worker %s (%s)\n", p.FullName, p.CustomID)
			fmt.Fprintf(w, "Phone: %s\nUPI ID: %s\n", p.Phone, p.UPIID)
		}
		if p, ok := snap.Employer(); ok {
			fmt.Fprintf(w, "Signed in as employer %s (%s)\n", p.CompanyName, p.CustomID)
			fmt.Fprintf(w, "Withdrawals: up to %d%% of earnings, payday on day %d\n", p.Config.MaxPercentage, p.Config.PaydayDay)
		}
	}
	return nil
}
