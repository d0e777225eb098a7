// Package commands implements the earnedpay CLI. Each invocation restores the
// session from the stored identity token, then runs one guarded view.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"earnedpay/internal/client"
	"earnedpay/internal/identity"
	"earnedpay/internal/platform/config"
	"earnedpay/internal/portal"
	"earnedpay/internal/session"
)

// env is the per-invocation client state shared by every command.
type env struct {
	cfg      config.ClientConfig
	api      *client.Client
	tokens   *identity.FileStore
	session  *session.Session
	worker   *portal.WorkerPortal
	employer *portal.EmployerPortal
}

// open replays the stored identity into the session, like the identity
// provider's initial report. An unreadable token still reports signed out.
func (e *env) open(ctx context.Context) error {
	id, err := e.tokens.Current()
	if err != nil {
		e.session.OnIdentityChange(ctx, nil)
		return fmt.Errorf("stored identity: %w", err)
	}
	e.session.OnIdentityChange(ctx, id)
	return nil
}

// viewCommand restores the session before run. The portal behind run applies
// the role guard.
func viewCommand(e *env, use, short string, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			return run(cmd, args)
		},
	}
}

// NewRootCommand builds a fresh command tree. cfg supplies flag defaults.
func NewRootCommand(cfg config.ClientConfig) *cobra.Command {
	e := &env{}

	root := &cobra.Command{
		Use:   "earnedpay",
		Short: "EarnedPay - earned wage access",
		Long: `EarnedPay lets workers withdraw wages they have already earned and lets
employers record attendance, manage workers and settle each month.

Sign in with "earnedpay login --token <id token>" first. Worker and employer
commands only run for an account of that role.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := e.cfg.Validate(); err != nil {
				return err
			}
			if e.cfg.TokenFile == "" {
				e.cfg.TokenFile = identity.DefaultTokenPath()
			}
			e.api = client.New(e.cfg.APIURL, &http.Client{Timeout: e.cfg.HTTPTimeout})
			e.tokens = identity.NewFileStore(e.cfg.TokenFile)
			e.session = session.New(e.tokens, e.api)
			e.worker = portal.NewWorkerPortal(e.session, e.api)
			e.employer = portal.NewEmployerPortal(e.session, e.api)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), figure.NewFigure("EarnedPay", "puffy", true).String())
			return cmd.Help()
		},
	}

	e.cfg = cfg
	root.PersistentFlags().StringVar(&e.cfg.APIURL, "api-url", cfg.APIURL, "EarnedPay API base URL")
	root.PersistentFlags().StringVar(&e.cfg.TokenFile, "token-file", cfg.TokenFile, "Path of the stored identity token")
	root.PersistentFlags().DurationVar(&e.cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout (0 means none)")

	root.AddCommand(
		newLoginCmd(e),
		newRegisterCmd(e),
		newLogoutCmd(e),
		newWhoamiCmd(e),
		newDevTokenCmd(),
		newBalanceCmd(e),
		newHistoryCmd(e),
		newWithdrawCmd(e),
		newUPICmd(e),
		newPasswordCmd(e),
		newDashboardCmd(e),
		newWorkersCmd(e),
		newAddWorkerCmd(e),
		newAttendanceCmd(e),
		newSettingsCmd(e),
		newSettlementsCmd(e),
		newSettleCmd(e),
		newStatementCmd(e),
	)
	return root
}

// Execute loads .env files and the client config, then runs the CLI.
func Execute(ctx context.Context) error {
	if err := config.LoadEnvFiles(); err != nil {
		slog.Warn("env files", "err", err)
	}
	root := NewRootCommand(config.LoadClient())
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", describe(err))
		return err
	}
	return nil
}

// describe turns an error into the message shown to the user.
func describe(err error) string {
	switch {
	case errors.Is(err, portal.ErrNotAuthorized):
		return "You are not signed in with the right account for this command. Run: earnedpay login"
	case errors.Is(err, portal.ErrSessionChanged):
		return "Your session changed while the request was running. Please try again."
	case errors.Is(err, identity.ErrTokenExpired):
		return "Your sign-in has expired. Run: earnedpay login"
	}
	return client.Message(err)
}
