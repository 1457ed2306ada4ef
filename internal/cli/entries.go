package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultkeeper/internal/models"
	"github.com/iudanet/vaultkeeper/internal/passgen"
	"github.com/iudanet/vaultkeeper/internal/vault"
)

func (c *Cli) newListCommand() *cobra.Command {
	var category, search string
	var showPasswords bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries",
		Example: "  vaultkeeper list\n" +
			"  vaultkeeper list --category finance --show-passwords",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.unlock(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := v.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			entries = filterEntries(entries, category, search)

			c.io.Println("=== Saved Entries ===")
			c.io.Println("")

			if len(entries) == 0 {
				c.io.Println("No entries found.")
				c.io.Println("")
				c.io.Println("Use 'vaultkeeper add' to add your first entry.")
				return nil
			}

			c.io.Printf("Found %d entry(ies):\n", len(entries))
			c.io.Println("")
			for _, e := range entries {
				c.io.Printf("%d. %s\n", e.ID, e.Name)
				if e.Username != "" {
					c.io.Printf("   Username: %s\n", e.Username)
				}
				if e.URL != "" {
					c.io.Printf("   URL:      %s\n", e.URL)
				}
				if e.Category != "" {
					c.io.Printf("   Category: %s\n", e.Category)
				}
				if showPasswords {
					c.io.Printf("   Password: %s\n", e.Password)
				}
				c.io.Println("")
			}

			if !showPasswords {
				c.io.Println("Passwords are hidden. Use 'vaultkeeper show <id>' to view an entry.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Show only entries of this category")
	cmd.Flags().StringVar(&search, "search", "", "Show only entries whose name, username or URL contains the text")
	cmd.Flags().BoolVar(&showPasswords, "show-passwords", false, "Print passwords")
	return cmd
}

// filterEntries отбирает записи по категории и подстроке (без учета регистра)
func filterEntries(entries []models.Entry, category, search string) []models.Entry {
	if category == "" && search == "" {
		return entries
	}

	needle := strings.ToLower(search)
	out := make([]models.Entry, 0, len(entries))
	for _, e := range entries {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Name), needle) &&
			!strings.Contains(strings.ToLower(e.Username), needle) &&
			!strings.Contains(strings.ToLower(e.URL), needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (c *Cli) newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Short:   "Show an entry with its password",
		Example: "  vaultkeeper show 3",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			v, err := c.unlock(cmd.Context())
			if err != nil {
				return err
			}

			entry, err := v.GetEntry(cmd.Context(), id)
			if err != nil {
				return err
			}
			c.printEntry(entry)
			return nil
		},
	}
}

func (c *Cli) printEntry(e *models.Entry) {
	c.io.Printf("=== %s ===\n", e.Name)
	c.io.Printf("ID:            %d\n", e.ID)
	c.io.Printf("Username:      %s\n", e.Username)
	c.io.Printf("Password:      %s\n", e.Password)
	c.io.Printf("URL:           %s\n", e.URL)
	c.io.Printf("Category:      %s\n", e.Category)
	if e.Notes != "" {
		c.io.Printf("Notes:         %s\n", e.Notes)
	}
	if e.HistoryLimit != nil && *e.HistoryLimit > 0 {
		c.io.Printf("History limit: %d\n", *e.HistoryLimit)
	} else {
		c.io.Println("History limit: unlimited")
	}
	c.io.Printf("Last updated:  %s\n", e.LastUpdated)
}

// entryFlags - поля записи из флагов add/edit
type entryFlags struct {
	name, url, category, username, notes string

	historyLimit   int
	promptPassword bool
	generate       bool

	length                                int
	noUpper, noLower, noDigits, noSymbols bool
}

func (f *entryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Entry name")
	cmd.Flags().StringVar(&f.url, "url", "", "Site URL")
	cmd.Flags().StringVar(&f.category, "category", "", "Category")
	cmd.Flags().StringVar(&f.username, "username", "", "Username or email")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
	cmd.Flags().IntVar(&f.historyLimit, "history-limit", 0, "How many previous passwords to keep (0 keeps all)")
	cmd.Flags().BoolVar(&f.generate, "generate", false, "Generate the password instead of prompting")
	addGeneratorFlags(cmd, &f.length, &f.noUpper, &f.noLower, &f.noDigits, &f.noSymbols)
}

func (f *entryFlags) generatorOptions() passgen.Options {
	return passgen.Options{
		Length:  f.length,
		Upper:   !f.noUpper,
		Lower:   !f.noLower,
		Digits:  !f.noDigits,
		Symbols: !f.noSymbols,
	}
}

// apply переносит заданные флаги в запись
func (f *entryFlags) apply(cmd *cobra.Command, e *models.Entry) {
	changed := cmd.Flags().Changed
	if changed("name") {
		e.Name = f.name
	}
	if changed("url") {
		e.URL = f.url
	}
	if changed("category") {
		e.Category = f.category
	}
	if changed("username") {
		e.Username = f.username
	}
	if changed("notes") {
		e.Notes = f.notes
	}
	if changed("history-limit") {
		e.HistoryLimit = models.IntPtr(f.historyLimit)
	}
}

// entryPassword возвращает новый пароль: сгенерированный или введенный
func (c *Cli) entryPassword(f *entryFlags, prompt string) (string, error) {
	if f.generate {
		password, err := generatePassword(f.generatorOptions())
		if err != nil {
			return "", err
		}
		c.io.Println("Generated password:", password)
		return password, nil
	}
	password, err := c.io.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return password, nil
}

func (c *Cli) newAddCommand() *cobra.Command {
	f := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an entry",
		Example: "  vaultkeeper add --name Bank --username alice --url https://bank.example\n" +
			"  vaultkeeper add --name Mail --generate --length 24",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}

			var entry models.Entry
			f.apply(cmd, &entry)

			if strings.TrimSpace(entry.Name) == "" {
				name, err := c.io.ReadInput("Name: ")
				if err != nil {
					return err
				}
				entry.Name = name
			}

			entry.Password, err = c.entryPassword(f, "Password (leave empty for none): ")
			if err != nil {
				return err
			}

			entries, err := v.SaveEntry(ctx, entry)
			if err != nil {
				return err
			}

			c.io.Printf("✓ Entry %q saved (ID %d).\n", entry.Name, newestID(entries, entry.Name))
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

// newestID - идентификатор последней записи с данным именем
func newestID(entries []models.Entry, name string) int64 {
	var id int64
	for _, e := range entries {
		if e.Name == name && e.ID > id {
			id = e.ID
		}
	}
	return id
}

func (c *Cli) newEditCommand() *cobra.Command {
	f := &entryFlags{}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an entry; a changed password is kept in the history",
		Example: "  vaultkeeper edit 3 --username bob\n" +
			"  vaultkeeper edit 3 --password\n" +
			"  vaultkeeper edit 3 --generate",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}

			entry, err := v.GetEntry(ctx, id)
			if err != nil {
				return err
			}

			f.apply(cmd, entry)
			if f.promptPassword || f.generate {
				entry.Password, err = c.entryPassword(f, "New password: ")
				if err != nil {
					return err
				}
			}

			if _, err := v.SaveEntry(ctx, *entry); err != nil {
				return err
			}

			c.io.Printf("✓ Entry %q updated.\n", entry.Name)
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&f.promptPassword, "password", false, "Prompt for a new password")
	return cmd
}

func (c *Cli) newDeleteCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Short:   "Delete an entry and its password history",
		Example: "  vaultkeeper delete 3 --yes",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}

			entry, err := v.GetEntry(ctx, id)
			if err != nil {
				return err
			}

			if !yes {
				confirmed, err := c.confirm(entry)
				if err != nil {
					return err
				}
				if !confirmed {
					c.io.Println("Deletion cancelled.")
					return nil
				}
			}

			if _, err := v.DeleteEntry(ctx, id); err != nil {
				return err
			}

			c.io.Printf("✓ Entry %q deleted.\n", entry.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (c *Cli) confirm(entry *models.Entry) (bool, error) {
	c.io.Println("About to delete:")
	c.io.Printf("  Name:     %s\n", entry.Name)
	c.io.Printf("  Username: %s\n", entry.Username)
	if entry.URL != "" {
		c.io.Printf("  URL:      %s\n", entry.URL)
	}

	answer, err := c.io.ReadInput("Are you sure you want to delete this entry? (yes/no): ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "yes" || answer == "y", nil
}

func (c *Cli) newCopyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "copy <id>",
		Short:   "Duplicate an entry as \"<name>" + vault.DuplicateSuffix + "\"",
		Example: "  vaultkeeper copy 3",
		Args:    exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return c.withVault(cmd.Context(), func(ctx context.Context, v vault.Service) error {
				source, err := v.GetEntry(ctx, id)
				if err != nil {
					return err
				}

				entries, err := v.CopyEntry(ctx, id)
				if err != nil {
					return err
				}

				name := source.Name + vault.DuplicateSuffix
				c.io.Printf("✓ Entry copied as %q (ID %d).\n", name, newestID(entries, name))
				return nil
			})
		},
	}
}

// withVault выполняет fn на разблокированном хранилище
func (c *Cli) withVault(ctx context.Context, fn func(context.Context, vault.Service) error) error {
	v, err := c.unlock(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, v)
}
