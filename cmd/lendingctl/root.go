package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "lendingctl",
		Short:        "Operate the library lending core",
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&flags.observability, "observability", false,
		"report logs, metrics and traces through the globally registered OpenTelemetry providers")
	root.PersistentFlags().StringVar(&flags.notifySink, "notify-sink", sinkJSON,
		"where notifications go: json (JSON lines on stdout) or log")

	root.AddCommand(
		newMigrateCommand(flags),
		newOverdueCommand(flags),
		newRemindersCommand(flags),
		newSweepCommand(flags),
		newFeeCommand(flags),
	)

	return root
}

// runWithApp builds the app for one command run and releases it afterwards.
func runWithApp(cmd *cobra.Command, flags *globalFlags, fn func(a *app) error) error {
	a, err := newApp(cmd.Context(), *flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	return fn(a)
}
