package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"earnedpay/internal/domain/wage"
)

func newBalanceCmd(e *env) *cobra.Command {
	return viewCommand(e, "balance", "Show earned wages and what can be withdrawn", func(cmd *cobra.Command, args []string) error {
		b, err := e.worker.LoadBalance(cmd.Context())
		if err != nil {
			return err
		}
		printBalance(cmd.OutOrStdout(), b)
		return nil
	})
}

func newHistoryCmd(e *env) *cobra.Command {
	return viewCommand(e, "history", "Show balance and recent withdrawals", func(cmd *cobra.Command, args []string) error {
		b, history, err := e.worker.Refresh(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printBalance(out, b)
		fmt.Fprintln(out)
		if len(history) == 0 {
			fmt.Fprintln(out, "No withdrawals yet.")
			return nil
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "REQUESTED\tAMOUNT\tSTATUS\tUPI ID\tTRANSACTION")
		for _, w := range history {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", formatTime(w.RequestedAt), wage.FormatRupees(w.Amount), w.Status, w.UPIID, w.TransactionID)
		}
		return tw.Flush()
	})
}

func newWithdrawCmd(e *env) *cobra.Command {
	var (
		amount float64
		upiID  string
	)
	cmd := viewCommand(e, "withdraw", "Withdraw part of your earned wages", func(cmd *cobra.Command, args []string) error {
		if upiID == "" {
			if p, ok := e.session.Snapshot().Worker(); ok {
				upiID = p.UPIID
			}
		}
		receipt, err := e.worker.Withdraw(cmd.Context(), amount, upiID)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, receipt.Message)
		fmt.Fprintf(out, "Amount: %s\nStatus: %s\n", wage.FormatRupees(receipt.Amount), receipt.Status)
		if receipt.TransactionID != "" {
			fmt.Fprintf(out, "Transaction: %s\n", receipt.TransactionID)
		}
		return nil
	})
	cmd.Flags().Float64Var(&amount, "amount", 0, "Amount in rupees")
	cmd.Flags().StringVar(&upiID, "upi", "", "UPI ID to pay (defaults to the one on your profile)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newUPICmd(e *env) *cobra.Command {
	cmd := viewCommand(e, "upi <upi-id>", "Change the UPI ID withdrawals are paid to", func(cmd *cobra.Command, args []string) error {
		if err := e.worker.UpdateUPI(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "UPI ID updated successfully")
		return nil
	})
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

func newPasswordCmd(e *env) *cobra.Command {
	var password string
	cmd := viewCommand(e, "password", "Change your login password", func(cmd *cobra.Command, args []string) error {
		if password == "-" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		if err := e.worker.UpdatePassword(cmd.Context(), password); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Password updated successfully")
		return nil
	})
	cmd.Flags().StringVar(&password, "password", "-", "New password, or - for stdin")
	return cmd
}

func printBalance(w io.Writer, b wage.Balance) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Earned this month\t%s\n", wage.FormatRupees(b.TotalEarned))
	fmt.Fprintf(tw, "Withdrawn\t%s\n", wage.FormatRupees(b.TotalWithdrawn))
	fmt.Fprintf(tw, "Available to withdraw\t%s\n", wage.FormatRupees(b.AvailableToWithdraw))
	fmt.Fprintf(tw, "Payday %s\t%s\n", formatDate(b.NextPayday), wage.FormatRupees(b.PaydayAmount))
	_ = tw.Flush()
}
