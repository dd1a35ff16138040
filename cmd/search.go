package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hotleads/internal/export"
	"github.com/sells-group/hotleads/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find fresh uncalled leads around a ZIP code",
	Example: `  hotleads search --zip 90210 --radius 10 --days 14
  hotleads search --zip 90210 --refresh --csv leads.csv --notion`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("search"); err != nil {
			return err
		}

		zip, _ := cmd.Flags().GetString("zip")
		radius, _ := cmd.Flags().GetInt("radius")
		days, _ := cmd.Flags().GetInt("days")
		refresh, _ := cmd.Flags().GetBool("refresh")
		csvPath, _ := cmd.Flags().GetString("csv")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		toNotion, _ := cmd.Flags().GetBool("notion")

		params := model.SearchParams{
			PostalCode:  zip,
			RadiusMiles: radius,
			RecencyDays: days,
			Refresh:     refresh,
		}
		if err := params.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			return err
		}

		var notionExp *export.NotionExporter
		if toNotion {
			exp, err := newNotionExporter()
			if err != nil {
				return err
			}
			notionExp = exp
		}

		unlock, err := acquireRunLock(lockPath())
		if err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			return err
		}
		defer unlock()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Pipeline.Run(ctx, params)
		if err != nil {
			fmt.Fprintln(os.Stderr, model.UserMessage(err))
			return err
		}

		formatLeads(os.Stdout, *snap)

		if csvPath != "" {
			if err := writeCSVFile(csvPath, *snap); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %s\n", csvPath)
		}
		if xlsxPath != "" {
			if err := export.WriteXLSX(xlsxPath, *snap); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %s\n", xlsxPath)
		}
		if notionExp != nil {
			url, dbID, err := notionExp.Export(ctx, *snap)
			if err != nil {
				return err
			}
			zap.L().Info("exported to notion", zap.String("database_id", dbID))
			fmt.Fprintf(os.Stdout, "Notion: %s\nReconcile later with: hotleads reconcile --previous <csv> --notion-db %s\n", url, dbID)
		}
		return nil
	},
}

func init() {
	f := searchCmd.Flags()
	f.String("zip", "", "5-digit US ZIP code to search around")
	f.Int("radius", model.Radii[0], fmt.Sprintf("search radius in miles (%s)", model.RadiiText()))
	f.Int("days", 14, "only businesses opened within this many days (1-30)")
	f.Bool("refresh", false, "purge cached geocode and query results first")
	f.String("csv", "", "write the lead table to this CSV file")
	f.String("xlsx", "", "write the lead table to this XLSX file")
	f.Bool("notion", false, "publish the lead table as a Notion database")
	_ = searchCmd.MarkFlagRequired("zip")
	rootCmd.AddCommand(searchCmd)
}
