package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"slotbook/internal/domain"
	"slotbook/internal/service/schedule"
	"slotbook/internal/store/postgres"
)

func newScheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect and edit the weekly business hours",
	}

	// withService runs fn against a schedule service without caching.
	withService := func(cmd *cobra.Command, fn func(ctx context.Context, svc *schedule.Service) error) error {
		cfg, err := a.load()
		if err != nil {
			return err
		}
		log := newLogger(cfg.LogLevel)
		db, err := openDatabase(cfg, log)
		if err != nil {
			return err
		}
		defer closeDatabase(db, log)
		return fn(cmd.Context(), schedule.NewService(postgres.NewCalendarRepo(db), 0))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the weekly schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *schedule.Service) error {
				ws, err := svc.Get(ctx)
				if err != nil {
					return err
				}
				return printSchedule(cmd.OutOrStdout(), ws)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "set <weekday> <open HH:MM> <close HH:MM>",
		Short:   "Set the opening hours of one weekday",
		Example: "  slotbook schedule set monday 08:00 17:00",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseWeekday(args[0])
			if err != nil {
				return err
			}
			open, err := domain.ParseTimeOfDay(args[1])
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			close, err := domain.ParseTimeOfDay(args[2])
			if err != nil {
				return fmt.Errorf("close: %w", err)
			}
			return withService(cmd, func(ctx context.Context, svc *schedule.Service) error {
				ws, err := svc.SetDay(ctx, day, open, close)
				if err != nil {
					return err
				}
				return printSchedule(cmd.OutOrStdout(), ws)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "close <weekday>",
		Short: "Mark a weekday as closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseWeekday(args[0])
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc *schedule.Service) error {
				ws, err := svc.CloseDay(ctx, day)
				if err != nil {
					return err
				}
				return printSchedule(cmd.OutOrStdout(), ws)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default schedule (08:00-17:00 every day) if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *schedule.Service) error {
				ws, created, err := svc.InitDefaults(ctx)
				if err != nil {
					return err
				}
				if !created {
					fmt.Fprintln(cmd.OutOrStdout(), "schedule already configured")
				}
				return printSchedule(cmd.OutOrStdout(), ws)
			})
		},
	})

	return cmd
}

func printSchedule(w io.Writer, ws domain.WeeklySchedule) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WEEKDAY\tHOURS")
	for _, d := range domain.Weekdays() {
		fmt.Fprintf(tw, "%s\t%s\n", d, ws.Get(d))
	}
	return tw.Flush()
}
