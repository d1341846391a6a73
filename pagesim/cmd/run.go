package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/sarchlab/pagesim/process"
	"github.com/sarchlab/pagesim/simulation"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [program files...]",
	Short: "Run programs on the simulated memory.",
	Long: "`run` loads each program as a process, runs them round-robin, " +
		"and prints how each of them ended.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("time-slice") {
			cfg.TimeSlice, _ = flags.GetInt("time-slice")
		}
		if flags.Changed("record") {
			cfg.RecordPath, _ = flags.GetString("record")
		}
		if flags.Changed("monitor-port") {
			cfg.MonitorPort, _ = flags.GetInt("monitor-port")
		}
		if flags.Changed("debug") {
			cfg.Debug, _ = flags.GetBool("debug")
		}

		if err = cfg.Validate(); err != nil {
			return err
		}

		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		b := simulation.MakeBuilder().
			WithConfig(cfg).
			WithLogger(logger).
			WithDebugWriter(cmd.OutOrStdout())
		if open, _ := flags.GetBool("open-browser"); open {
			b = b.WithMonitoring().WithOpenBrowser()
		}

		s, err := b.Build()
		if err != nil {
			return err
		}
		defer s.Terminate()

		for _, path := range args {
			if _, err = s.LoadProcess(path); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		results, err := s.Run(ctx)
		printResults(cmd.OutOrStdout(), results)

		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("time-slice", 0,
		"instructions a process runs before yielding")
	runCmd.Flags().String("record", "",
		"record memory events into this SQLite file (without extension)")
	runCmd.Flags().Int("monitor-port", 0,
		"serve the monitor on this port")
	runCmd.Flags().Bool("open-browser", false,
		"serve the monitor and open it in a browser")
	runCmd.Flags().Bool("debug", false,
		"dump the page table and RAM after every read and write")
}

func printResults(w io.Writer, results []process.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tNAME\tEXECUTED\tSTATUS")

	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}

		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", r.PID, r.Name, r.Executed, status)
	}

	tw.Flush()
}
