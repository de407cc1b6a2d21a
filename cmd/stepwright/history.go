package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historyVerbose bool
)

var historyCmd = &cobra.Command{
	Use:   "history ID",
	Short: "Show the recorded runs of a stored test case, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.close()
	s, err := a.openStore()
	if err != nil {
		return err
	}
	tc, err := s.GetByID(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	execs, err := s.ListExecutions(cmd.Context(), tc.ID, historyLimit)
	if err != nil {
		return err
	}
	if len(execs) == 0 {
		fmt.Printf("%s has not been run yet.\n", tc.Name)
		return nil
	}

	fmt.Printf("%s (%s)\n\n", tc.Name, humanize.Comma(int64(len(execs)))+" runs shown")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSTATUS\tPASSED\tFAILED\tDURATION\tMESSAGE")
	for _, e := range execs {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%s\t%s\n",
			humanize.Time(e.StartedAt), e.Status, e.PassedSteps, e.TotalSteps, e.FailedSteps,
			time.Duration(e.DurationMs)*time.Millisecond, e.ErrorMessage)
		if historyVerbose {
			for i, r := range e.StepResults {
				fmt.Fprintf(w, "\t  %d. %s\t%s\t\t\t%s\n", i+1, r.Step, r.Status, r.Message)
			}
		}
	}
	return w.Flush()
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show, 0 for all")
	historyCmd.Flags().BoolVarP(&historyVerbose, "verbose", "v", false, "include per-step results")
	rootCmd.AddCommand(historyCmd)
}
