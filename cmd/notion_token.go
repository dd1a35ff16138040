package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/hotleads/internal/secrets"
)

var notionTokenCmd = &cobra.Command{
	Use:   "notion-token",
	Short: "Manage the Notion integration token in the OS keychain",
}

var notionTokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the Notion integration token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.SetNotionToken(args[0]); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Notion token saved to the keychain.")
		return nil
	},
}

var notionTokenDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored Notion integration token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.DeleteNotionToken(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Notion token removed.")
		return nil
	},
}

func init() {
	notionTokenCmd.AddCommand(notionTokenSetCmd, notionTokenDeleteCmd)
	rootCmd.AddCommand(notionTokenCmd)
}
