// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FarbodDadkhah/investment-analyst-tool/internal/store"
	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "List and inspect archived research batches",
	Long: `Store queries the local SQLite archive of past research runs.
Use "store list" to see recent batches and "store show <id>" to print
one batch in its persisted JSON shape.`,
}

// --- list subcommand ---

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent archived batches",
	RunE:  runStoreList,
}

func runStoreList(cmd *cobra.Command, args []string) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	company, _ := cmd.Flags().GetString("company")
	rows, err := s.List(context.Background(), company)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No archived batches.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-24s  %-32s  %-20s  %-4s  %s\n",
		"ID", "Company", "Objective", "Created", "OK", "Failed")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 96))
	for _, r := range rows {
		company := r.CompanyName
		if len(company) > 24 {
			company = company[:21] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-24s  %-32s  %-20s  %-4d  %d\n",
			r.ID, company, r.GeneralObjective, r.CreatedAt, r.Succeeded, r.Failed)
	}
	return nil
}

// --- show subcommand ---

var storeShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one archived batch as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreShow,
}

func runStoreShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid batch id %q", args[0])
	}

	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	batch, err := s.Get(context.Background(), id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	archiveDir, _ := cmd.Flags().GetString("archive-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return store.NewStore(types.StoreConfig{
		ArchiveDir: archiveDir,
		MaxResults: maxResults,
	})
}

func init() {
	storeCmd.PersistentFlags().String("archive-dir", "outputs/archive", "directory for the SQLite batch archive")

	storeListCmd.Flags().String("company", "", "filter by company name")
	storeListCmd.Flags().Int("max-results", 20, "maximum number of rows")
	storeListCmd.Flags().Bool("json", false, "output as JSON")

	storeShowCmd.Flags().Int("max-results", 20, "maximum number of rows")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeShowCmd)
	rootCmd.AddCommand(storeCmd)
}
