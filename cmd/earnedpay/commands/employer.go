package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"earnedpay/internal/client"
	"earnedpay/internal/domain/wage"
)

func newDashboardCmd(e *env) *cobra.Command {
	return viewCommand(e, "dashboard", "Show this month's totals", func(cmd *cobra.Command, args []string) error {
		d, err := e.employer.Dashboard(cmd.Context())
		if err != nil {
			return err
		}
		tw := newTable(cmd.OutOrStdout())
		fmt.Fprintf(tw, "Workers\t%d (%d active)\n", d.TotalWorkers, d.ActiveWorkers)
		fmt.Fprintf(tw, "Earnings this month\t%s\n", wage.FormatRupees(d.TotalEarningsThisMonth))
		fmt.Fprintf(tw, "Withdrawals this month\t%s\n", wage.FormatRupees(d.TotalWithdrawalsThisMonth))
		fmt.Fprintf(tw, "Pending settlement\t%s\n", wage.FormatRupees(d.PendingSettlement))
		fmt.Fprintf(tw, "Next payday\t%s\n", formatDate(d.NextPayday))
		return tw.Flush()
	})
}

func newWorkersCmd(e *env) *cobra.Command {
	return viewCommand(e, "workers", "List your workers", func(cmd *cobra.Command, args []string) error {
		workers, err := e.employer.Workers(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(workers) == 0 {
			fmt.Fprintln(out, "No workers yet. Add one with: earnedpay add-worker")
			return nil
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tNAME\tPHONE\tUPI ID\tEARNED\tWITHDRAWN\tACTIVE")
		for _, w := range workers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%t\n", w.ID, w.FullName, w.PhoneNumber, w.UPIID,
				wage.FormatRupees(w.CurrentMonthEarnings), wage.FormatRupees(w.TotalWithdrawn), w.IsActive)
		}
		return tw.Flush()
	})
}

func newAddWorkerCmd(e *env) *cobra.Command {
	var w client.NewWorker
	cmd := viewCommand(e, "add-worker", "Add a worker to your company", func(cmd *cobra.Command, args []string) error {
		id, err := e.employer.AddWorker(cmd.Context(), w)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Worker %s added successfully (id %s)\n", w.FullName, id)
		return nil
	})
	cmd.Flags().StringVar(&w.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&w.PhoneNumber, "phone", "", "Phone number, e.g. +919876543210")
	cmd.Flags().StringVar(&w.UPIID, "upi", "", "UPI ID")
	return cmd
}

func newAttendanceCmd(e *env) *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := viewCommand(e, "attendance", "Record shifts from a JSON file", func(cmd *cobra.Command, args []string) error {
		entries, err := readAttendance(file)
		if err != nil {
			return err
		}
		preview, err := e.employer.PreviewAttendance(entries)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		tw := newTable(out)
		fmt.Fprintln(tw, "WORKER\tDATE\tHOURS\tWAGE/HR\tEARNED")
		for _, l := range preview.Lines {
			fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\n", l.Entry.WorkerID, l.Entry.Date, l.Entry.HoursWorked,
				wage.FormatRupees(l.Entry.WagePerHour), wage.FormatRupees(l.Earned))
		}
		fmt.Fprintf(tw, "\t\t\tTotal\t%s\n", wage.FormatRupees(preview.Total))
		if err := tw.Flush(); err != nil {
			return err
		}
		if dryRun {
			return nil
		}
		result, err := e.employer.SubmitAttendance(cmd.Context(), entries)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Message)
		return nil
	})
	cmd.Flags().StringVarP(&file, "file", "f", "", `JSON file: a list of entries or {"entries": [...]}`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only preview the earnings")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readAttendance(path string) ([]wage.AttendanceEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read attendance file: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	var entries []wage.AttendanceEntry
	if strings.HasPrefix(trimmed, "{") {
		var wrapped struct {
			Entries []wage.AttendanceEntry `json:"entries"`
		}
		err = json.Unmarshal(raw, &wrapped)
		entries = wrapped.Entries
	} else {
		err = json.Unmarshal(raw, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parse attendance file: %w", err)
	}
	return entries, nil
}

func newSettingsCmd(e *env) *cobra.Command {
	var (
		company, phone, gst string
		cfg                 wage.EmployerConfig
	)
	cmd := viewCommand(e, "settings", "Show or change company details and withdrawal rules", func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var update client.EmployerUpdate
		if flags.Changed("company") {
			update.CompanyName = &company
		}
		if flags.Changed("phone") {
			update.PhoneNumber = &phone
		}
		if flags.Changed("gst") {
			update.GSTNumber = &gst
		}
		if flags.Changed("max-percentage") || flags.Changed("payday") || flags.Changed("min-amount") || flags.Changed("max-amount") {
			current, err := e.employer.Profile(cmd.Context())
			if err != nil {
				return err
			}
			merged := current.WithdrawalConfig.WithDefaults()
			if flags.Changed("max-percentage") {
				merged.MaxPercentage = cfg.MaxPercentage
			}
			if flags.Changed("payday") {
				merged.PaydayDay = cfg.PaydayDay
			}
			if flags.Changed("min-amount") {
				merged.MinAmount = cfg.MinAmount
			}
			if flags.Changed("max-amount") {
				merged.MaxAmount = cfg.MaxAmount
			}
			update.WithdrawalConfig = &merged
		}

		out := cmd.OutOrStdout()
		if update != (client.EmployerUpdate{}) {
			if err := e.employer.UpdateProfile(cmd.Context(), update); err != nil {
				return err
			}
			fmt.Fprintln(out, "Profile updated successfully")
		}

		p, err := e.employer.Profile(cmd.Context())
		if err != nil {
			return err
		}
		c := p.WithdrawalConfig.WithDefaults()
		tw := newTable(out)
		fmt.Fprintf(tw, "Company\t%s\n", p.CompanyName)
		fmt.Fprintf(tw, "Phone\t%s\n", p.PhoneNumber)
		fmt.Fprintf(tw, "GST number\t%s\n", p.GSTNumber)
		fmt.Fprintf(tw, "Max withdrawal\t%d%% of earnings\n", c.MaxPercentage)
		fmt.Fprintf(tw, "Payday\tday %d\n", c.PaydayDay)
		fmt.Fprintf(tw, "Min per withdrawal\t%s\n", wage.FormatRupees(c.MinAmount))
		fmt.Fprintf(tw, "Max per withdrawal\t%s\n", wage.FormatRupees(c.MaxAmount))
		return tw.Flush()
	})
	cmd.Flags().StringVar(&company, "company", "", "Company name")
	cmd.Flags().StringVar(&phone, "phone", "", "Company phone number")
	cmd.Flags().StringVar(&gst, "gst", "", "GST number")
	cmd.Flags().IntVar(&cfg.MaxPercentage, "max-percentage", 0, "Share of earnings workers may withdraw (10-100)")
	cmd.Flags().IntVar(&cfg.PaydayDay, "payday", 0, "Day of month wages are paid (1-31)")
	cmd.Flags().Float64Var(&cfg.MinAmount, "min-amount", 0, "Smallest withdrawal in rupees")
	cmd.Flags().Float64Var(&cfg.MaxAmount, "max-amount", 0, "Largest single withdrawal in rupees")
	return cmd
}

func newSettlementsCmd(e *env) *cobra.Command {
	return viewCommand(e, "settlements", "List processed settlements", func(cmd *cobra.Command, args []string) error {
		list, err := e.employer.Settlements(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No settlements yet.")
			return nil
		}
		tw := newTable(out)
		fmt.Fprintln(tw, "ID\tMONTH\tWORKERS\tEARNED\tWITHDRAWN\tNET\tSETTLED")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n", s.ID, s.Month, s.TotalWorkers,
				wage.FormatRupees(s.TotalEarnings), wage.FormatRupees(s.TotalWithdrawals),
				wage.FormatRupees(s.NetSettlement), formatTime(s.SettledAt))
		}
		return tw.Flush()
	})
}

func newSettleCmd(e *env) *cobra.Command {
	var month string
	cmd := viewCommand(e, "settle", "Settle every open ledger of a month", func(cmd *cobra.Command, args []string) error {
		if month == "" {
			month = wage.CycleMonth(time.Now())
		}
		result, err := e.employer.ProcessSettlement(cmd.Context(), month)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Message)
		tw := newTable(out)
		fmt.Fprintf(tw, "Settlement\t%s\n", result.SettlementID)
		fmt.Fprintf(tw, "Workers\t%d\n", result.WorkersCount)
		fmt.Fprintf(tw, "Earned\t%s\n", wage.FormatRupees(result.TotalEarnings))
		fmt.Fprintf(tw, "Withdrawn\t%s\n", wage.FormatRupees(result.TotalWithdrawals))
		fmt.Fprintf(tw, "Net payable\t%s\n", wage.FormatRupees(result.NetSettlement))
		return tw.Flush()
	})
	cmd.Flags().StringVar(&month, "month", "", "Month to settle as YYYY-MM (defaults to the current month)")
	return cmd
}

func newStatementCmd(e *env) *cobra.Command {
	var output string
	cmd := viewCommand(e, "statement <settlement-id>", "Download a settlement statement PDF", func(cmd *cobra.Command, args []string) error {
		id := args[0]
		pdf, err := e.employer.SettlementStatement(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(pdf) == 0 {
			return errors.New("empty statement")
		}
		if output == "" {
			output = "settlement-" + id + ".pdf"
		}
		if err := os.WriteFile(output, pdf, 0o644); err != nil {
			return fmt.Errorf("write statement: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Statement saved to %s\n", output)
		return nil
	})
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to settlement-<id>.pdf)")
	return cmd
}
