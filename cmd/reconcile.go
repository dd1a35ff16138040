package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/hotleads/internal/model"
	"github.com/sells-group/hotleads/internal/pipeline"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Store call outcomes edited since a search",
	Long: `Compares the outcome column of an edited lead table with the table as it
was produced and upserts every changed row into the outcome store. The edited
table comes from a CSV file (--current) or from the Notion database created by
"search --notion" (--notion-db).

Once every change is stored the --previous file is rewritten with the edited
table, so the next reconcile only sees edits made after this one.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("reconcile"); err != nil {
			return err
		}

		prevPath, _ := cmd.Flags().GetString("previous")
		curPath, _ := cmd.Flags().GetString("current")
		dbID, _ := cmd.Flags().GetString("notion-db")
		if (curPath == "") == (dbID == "") {
			return eris.New("reconcile: exactly one of --current or --notion-db is required")
		}

		prev, err := readCSVFile(prevPath)
		if err != nil {
			return err
		}

		var cur model.Snapshot
		if curPath != "" {
			cur, err = readCSVFile(curPath)
		} else {
			exp, expErr := newNotionExporter()
			if expErr != nil {
				return expErr
			}
			cur, err = exp.ReadOutcomes(ctx, dbID, prev)
		}
		if err != nil {
			return err
		}

		unlock, err := acquireRunLock(lockPath())
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), model.UserMessage(err))
			return err
		}
		defer unlock()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		changes, err := pipeline.Reconcile(ctx, st, prev, cur, nil)
		formatChanges(cmd.OutOrStdout(), changes)
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), model.UserMessage(err))
			return err
		}

		// Advance the baseline; a failed run keeps it so the edit is retried.
		if err := writeCSVFile(prevPath, cur); err != nil {
			return eris.Wrap(err, "reconcile: advance previous table")
		}
		return nil
	},
}

func init() {
	f := reconcileCmd.Flags()
	f.String("previous", "", "CSV written by search; rewritten with the edited table after a successful run")
	f.String("current", "", "the same CSV after the outcome column was edited")
	f.String("notion-db", "", "Notion database ID holding the edited table")
	_ = reconcileCmd.MarkFlagRequired("previous")
	rootCmd.AddCommand(reconcileCmd)
}
