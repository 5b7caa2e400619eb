package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"repfit/internal/cli"
	"repfit/internal/demo"
)

// demoCmd groups the guest demo commands. None of them require a
// signed-in session or network access.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Try repfit without an account",
	Long: `Try repfit without an account.

The demo keeps a starter workout plan and a synthetic 7-day progress
history on your machine. Nothing leaves your computer and no sign-in is
required.`,
}

var demoPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the demo workout plan",
	RunE:  runDemoPlan,
}

var demoPlanImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the demo plan with one from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDemoPlanImport,
}

var demoProgressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Show the demo progress history",
	RunE:  runDemoProgress,
}

func init() {
	demoPlanCmd.AddCommand(demoPlanImportCmd)
	demoCmd.AddCommand(demoPlanCmd)
	demoCmd.AddCommand(demoProgressCmd)
}

func runDemoPlan(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	plan, err := app.demoProvider().Plan()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", plan.Name)

	tbl := cli.NewTable(out)
	tbl.AppendHeader([]interface{}{"Exercise", "Sets", "Reps"})
	for _, ex := range plan.Exercises {
		tbl.AppendRow([]interface{}{ex.Name, ex.Sets, ex.Reps})
	}
	tbl.Render()
	return nil
}

func runDemoPlanImport(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}

	var plan demo.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("failed to parse plan file: %w", err)
	}
	if len(plan.Exercises) == 0 {
		return fmt.Errorf("plan has no exercises")
	}

	if err := app.demoProvider().SavePlan(&plan); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Demo plan replaced (%d exercises)", len(plan.Exercises))))
	return nil
}

func runDemoProgress(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	defer app.Close()

	tbl := cli.NewTable(cmd.OutOrStdout())
	tbl.AppendHeader([]interface{}{"Day", "Completed At"})
	for i, entry := range app.demoProvider().Progress() {
		tbl.AppendRow([]interface{}{i + 1, entry})
	}
	tbl.Render()
	return nil
}
