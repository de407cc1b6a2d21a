package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rahul/stepwright/internal/testcase"
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "Manage stored test cases",
}

var casesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured user's test cases",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.openStore()
		if err != nil {
			return err
		}
		cases, err := s.ListForUser(cmd.Context(), a.cfg.App.User)
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			fmt.Println("No test cases yet. Add one with `stepwright cases add FILE`.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSTEPS\tUPDATED")
		for _, tc := range cases {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tc.ID, tc.Name, len(tc.Steps), humanize.Time(tc.UpdatedAt))
		}
		return w.Flush()
	},
}

var casesShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a stored test case as a case file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if err := printFile(testcase.FileFrom(*tc)); err != nil {
			return err
		}
		if last := tc.LastExecution; last != nil {
			fmt.Printf("# last run %s: %s, %d/%d passed\n",
				humanize.Time(last.CompletedAt), last.Status, last.PassedSteps, last.TotalSteps)
		}
		return nil
	},
}

var casesAddCmd = &cobra.Command{
	Use:   "add FILE",
	Short: "Import a case file into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()
		f, err := testcase.ReadFile(args[0])
		if err != nil {
			return err
		}
		d, err := f.Draft(a.cfg.App.User)
		if err != nil {
			return err
		}
		s, err := a.openStore()
		if err != nil {
			return err
		}
		tc, err := s.Create(cmd.Context(), d)
		if err != nil {
			return err
		}
		fmt.Println(tc.ID)
		return nil
	},
}

var casesRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a stored test case and its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()
		s, err := a.openStore()
		if err != nil {
			return err
		}
		deleted, err := s.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("test case %s not found", args[0])
		}
		fmt.Printf("  deleted %s\n", args[0])
		return nil
	},
}

var exportOut string

var casesExportCmd = &cobra.Command{
	Use:   "export ID",
	Short: "Write a stored test case to a case file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		f := testcase.FileFrom(*tc)
		if exportOut == "" {
			return printFile(f)
		}
		return testcase.WriteFile(exportOut, f)
	},
}

func printFile(f testcase.File) error {
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	casesExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "case file to write")
	casesCmd.AddCommand(casesListCmd, casesShowCmd, casesAddCmd, casesRmCmd, casesExportCmd)
	rootCmd.AddCommand(casesCmd)
}
