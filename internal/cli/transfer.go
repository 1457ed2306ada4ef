package cli

import (
	"github.com/spf13/cobra"
)

func (c *Cli) newExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Export all entries with decrypted passwords to a CSV file",
		Long: "Export writes every entry with its password in clear text.\n" +
			"The file is created with mode 0600; keep it somewhere safe.",
		Example: "  vaultkeeper export backup.csv",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.unlock(cmd.Context())
			if err != nil {
				return err
			}

			n, err := v.ExportCSVFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c.io.Printf("✓ Exported %d entry(ies) to %s\n", n, args[0])
			return nil
		},
	}
}

func (c *Cli) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from a CSV file",
		Long: "Import adds every row of the file as a new entry.\n" +
			"The first row is a header; rows with fewer than 6 fields are skipped.",
		Example: "  vaultkeeper import backup.csv",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.unlock(cmd.Context())
			if err != nil {
				return err
			}

			result, err := v.ImportCSVFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			c.io.Printf("✓ Imported %d entry(ies)", result.Imported)
			if result.Skipped > 0 {
				c.io.Printf(", skipped %d malformed row(s)", result.Skipped)
			}
			c.io.Println("")
			return nil
		},
	}
}
