package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/hotleads/internal/model"
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "List stored call outcomes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("outcomes"); err != nil {
			return err
		}

		var only model.Outcome
		if s, _ := cmd.Flags().GetString("outcome"); s != "" {
			o, err := model.ParseOutcome(s)
			if err != nil {
				return err
			}
			only = o
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		all, err := st.All(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			return err
		}
		if only != "" {
			for id, o := range all {
				if o != only {
					delete(all, id)
				}
			}
		}

		if len(all) == 0 {
			fmt.Fprintln(os.Stderr, "No outcomes recorded.")
			return nil
		}
		formatOutcomes(os.Stdout, all)
		return nil
	},
}

func init() {
	outcomesCmd.Flags().String("outcome", "", "only show leads with this outcome")
	rootCmd.AddCommand(outcomesCmd)
}
