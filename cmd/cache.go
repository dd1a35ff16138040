package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached geocode and query responses",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop every cached geocode and query response",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("cache"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		geoCache, queryCache, rc, err := initCaches(ctx, st)
		if err != nil {
			return err
		}
		if rc != nil {
			defer rc.Close() //nolint:errcheck
		}

		if err := geoCache.Purge(ctx); err != nil {
			return err
		}
		if err := queryCache.Purge(ctx); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Caches purged.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
