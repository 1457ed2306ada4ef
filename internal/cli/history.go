package cli

import (
	"github.com/spf13/cobra"
)

func (c *Cli) newHistoryCommand() *cobra.Command {
	var clearAll bool
	var prune int

	cmd := &cobra.Command{
		Use:   "history <id>",
		Short: "Show or trim the password history of an entry",
		Example: "  vaultkeeper history 3\n" +
			"  vaultkeeper history 3 --prune 5\n" +
			"  vaultkeeper history 3 --clear",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if clearAll && cmd.Flags().Changed("prune") {
				return usageErrorf("--clear and --prune cannot be used together")
			}
			if prune < 0 {
				return usageErrorf("--prune must not be negative")
			}

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}

			entry, err := v.GetEntry(ctx, id)
			if err != nil {
				return err
			}

			switch {
			case clearAll:
				if err := v.ClearHistory(ctx, id); err != nil {
					return err
				}
				c.io.Printf("✓ History of %q cleared.\n", entry.Name)
				return nil
			case cmd.Flags().Changed("prune"):
				if err := v.PruneHistory(ctx, id, prune); err != nil {
					return err
				}
				c.io.Printf("✓ History of %q trimmed to %d record(s).\n", entry.Name, prune)
				return nil
			}

			records, err := v.GetHistory(ctx, id)
			if err != nil {
				return err
			}

			c.io.Printf("=== Password history: %s ===\n", entry.Name)
			c.io.Println("")
			if len(records) == 0 {
				c.io.Println("No previous passwords.")
				return nil
			}
			for i, r := range records {
				c.io.Printf("%d. %s  %s\n", i+1, r.ChangedAt, r.Password)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove the whole history")
	cmd.Flags().IntVar(&prune, "prune", 0, "Keep only the newest N records")
	return cmd
}
