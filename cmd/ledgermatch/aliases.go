package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"ledgermatch/internal/cli"
	"ledgermatch/internal/model"
	"ledgermatch/internal/normalize"
)

func aliasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aliases",
		Short: "Manage merchant alias mappings",
		Long: `View, add, and remove merchant alias mappings.

Aliases map raw bank merchant strings to canonical names. Most entries are
learned automatically from review decisions; manual entries take the
MANUAL source and survive learned updates as AUTO_CONFIRMED.`,
	}

	cmd.AddCommand(aliasesListCmd())
	cmd.AddCommand(aliasesAddCmd())
	cmd.AddCommand(aliasesRemoveCmd())

	return cmd
}

func aliasesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all alias mappings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			aliases, err := store.GetAllAliases(ctx)
			if err != nil {
				return fmt.Errorf("failed to load aliases: %w", err)
			}
			if len(aliases) == 0 {
				fmt.Println(cli.FormatInfo("No aliases yet; run 'ledgermatch review' to start learning"))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tCANONICAL\tSOURCE\tUSED\tUPDATED")
			for _, a := range aliases {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
					a.Pattern, a.Canonical, a.Source, a.UseCount,
					a.LastUpdated.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func aliasesAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <pattern> <canonical>",
		Short: "Add a manual alias mapping",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pattern := normalize.Clean(args[0])
			canonical := normalize.Clean(args[1])
			if pattern == "" || canonical == "" {
				return fmt.Errorf("pattern and canonical must be non-empty after cleanup")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			alias := &model.AliasEntry{
				Pattern:     pattern,
				Canonical:   canonical,
				Source:      model.AliasSourceManual,
				LastUpdated: time.Now().UTC(),
			}
			if err := store.SaveAlias(ctx, alias); err != nil {
				return fmt.Errorf("failed to save alias: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Alias %q → %q saved", pattern, canonical)))
			return nil
		},
	}
}

func aliasesRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <pattern>",
		Short: "Remove an alias mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			pattern := normalize.Clean(args[0])
			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteAlias(ctx, pattern); err != nil {
				return fmt.Errorf("failed to delete alias: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Alias %q removed", pattern)))
			return nil
		},
	}
}
