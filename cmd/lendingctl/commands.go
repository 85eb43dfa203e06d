package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	flagDate   = "date"
	flagWithin = "within"
	flagISBN   = "isbn"

	defaultReminderDays = 3
)

func newMigrateCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the lending tables and indexes if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, flags, func(a *app) error {
				if err := a.store.Migrate(cmd.Context()); err != nil {
					return err
				}

				a.logger.Info("schema migrated", "driver", a.cfg.DBDriver)

				return nil
			})
		},
	}
}

func newOverdueCommand(flags *globalFlags) *cobra.Command {
	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "Inspect and notify overdue loans",
	}

	var listDate string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print all overdue loans with their late fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkDate, err := parseDate(listDate)
			if err != nil {
				return err
			}

			return runWithApp(cmd, flags, func(a *app) error {
				loans, err := a.service.GetOverdueBooks(cmd.Context(), checkDate)
				if err != nil {
					return err
				}

				if checkDate.IsZero() {
					checkDate = lending.ToCivilDate(time.Now())
				}

				out := cmd.OutOrStdout()
				for _, loan := range loans {
					fmt.Fprintf(out, "%s\t%s\tdue %s\t%d day(s)\tfee %d\n",
						loan.ISBN, loan.MemberID, lending.FormatDate(loan.DueDate),
						loan.OverdueDays(checkDate), loan.CalculateLateFee(checkDate))
				}

				return nil
			})
		},
	}
	list.Flags().StringVar(&listDate, flagDate, "", "check date as YYYY-MM-DD, defaults to today")

	var notifyDate string
	notifyCmd := &cobra.Command{
		Use:   "notify",
		Short: "Send an overdue notification for every overdue loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkDate, err := parseDate(notifyDate)
			if err != nil {
				return err
			}

			return runWithApp(cmd, flags, func(a *app) error {
				sent, err := a.service.SendOverdueNotifications(cmd.Context(), checkDate)
				if err != nil {
					return err
				}

				a.logger.Info("overdue notifications sent", "count", sent)

				return nil
			})
		},
	}
	notifyCmd.Flags().StringVar(&notifyDate, flagDate, "", "check date as YYYY-MM-DD, defaults to today")

	overdue.AddCommand(list, notifyCmd)

	return overdue
}

func newRemindersCommand(flags *globalFlags) *cobra.Command {
	var date string
	var within int

	reminders := &cobra.Command{
		Use:   "reminders",
		Short: "Send due date reminders for loans that are due soon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkDate, err := parseDate(date)
			if err != nil {
				return err
			}

			return runWithApp(cmd, flags, func(a *app) error {
				sent, err := a.service.SendDueDateReminders(cmd.Context(), checkDate, within)
				if err != nil {
					return err
				}

				a.logger.Info("due date reminders sent", "count", sent, "within_days", within)

				return nil
			})
		},
	}
	reminders.Flags().StringVar(&date, flagDate, "", "check date as YYYY-MM-DD, defaults to today")
	reminders.Flags().IntVar(&within, flagWithin, defaultReminderDays, "remind loans due within this many days")

	return reminders
}

// newSweepCommand runs the overdue notifications and the due date reminders side by side.
func newSweepCommand(flags *globalFlags) *cobra.Command {
	var date string
	var within int

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Send overdue notifications and due date reminders in one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkDate, err := parseDate(date)
			if err != nil {
				return err
			}

			return runWithApp(cmd, flags, func(a *app) error {
				var overdue, reminded int

				g, ctx := errgroup.WithContext(cmd.Context())
				g.Go(func() error {
					var err error
					overdue, err = a.service.SendOverdueNotifications(ctx, checkDate)
					return err
				})
				g.Go(func() error {
					var err error
					reminded, err = a.service.SendDueDateReminders(ctx, checkDate, within)
					return err
				})

				if err := g.Wait(); err != nil {
					return err
				}

				a.logger.Info("sweep completed", "overdue", overdue, "reminders", reminded)

				return nil
			})
		},
	}
	sweep.Flags().StringVar(&date, flagDate, "", "check date as YYYY-MM-DD, defaults to today")
	sweep.Flags().IntVar(&within, flagWithin, defaultReminderDays, "remind loans due within this many days")

	return sweep
}

func newFeeCommand(flags *globalFlags) *cobra.Command {
	var date string
	var isbn string

	fee := &cobra.Command{
		Use:   "fee",
		Short: "Print the late fee of the active loan of a book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			checkDate, err := parseDate(date)
			if err != nil {
				return err
			}

			return runWithApp(cmd, flags, func(a *app) error {
				amount, err := a.service.CalculateLateFee(cmd.Context(), isbn, checkDate)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", isbn, amount)

				return nil
			})
		},
	}
	fee.Flags().StringVar(&isbn, flagISBN, "", "ISBN of the borrowed book")
	fee.Flags().StringVar(&date, flagDate, "", "check date as YYYY-MM-DD, defaults to today")
	_ = fee.MarkFlagRequired(flagISBN)

	return fee
}
