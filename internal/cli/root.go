package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultkeeper/internal/passgen"
)

// rootCommand builds the command tree bound to c
func (c *Cli) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vaultkeeper",
		Short:         "Local encrypted password vault",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: "  vaultkeeper init\n" +
			"  vaultkeeper add --name Bank --username alice\n" +
			"  VAULTKEEPER_MASTER_PASSWORD=... vaultkeeper list\n" +
			"  vaultkeeper --master-password-file ~/.vaultkeeper-password export backup.csv",
	}
	cmd.SetOut(c.io)
	cmd.SetErr(c.io)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&c.globals.ConfigPath, "config", "", "Path to config file")
	flags.StringVar(&c.globals.DBPath, "db", "", "Path to vault file")
	flags.StringVar(&c.globals.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&c.globals.MasterPasswordFile, "master-password-file", "", "Path to file containing the master password")
	flags.DurationVar(&c.globals.AutoLock, "auto-lock", 0, "Lock the shell after this idle time (overrides the vault setting)")

	c.addCommands(cmd)
	cmd.AddCommand(
		c.newInitCommand(),
		c.newShellCommand(),
		c.newVersionCommand(),
	)
	return cmd
}

// addCommands добавляет команды, доступные и в shell
func (c *Cli) addCommands(cmd *cobra.Command) {
	cmd.AddCommand(
		c.newPasswdCommand(),
		c.newListCommand(),
		c.newShowCommand(),
		c.newAddCommand(),
		c.newEditCommand(),
		c.newDeleteCommand(),
		c.newCopyCommand(),
		c.newHistoryCommand(),
		c.newExportCommand(),
		c.newImportCommand(),
		c.newSettingsCommand(),
		c.newGenerateCommand(),
	)
}

func (c *Cli) newVersionCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asJSON {
				enc := json.NewEncoder(c.io)
				enc.SetIndent("", "  ")
				return enc.Encode(c.build)
			}

			c.io.Printf("vaultkeeper %s\n", c.build.Version)
			c.io.Printf("Build Date: %s\n", c.build.BuildTime)
			c.io.Printf("Git Commit: %s\n", c.build.Commit)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version as JSON")
	return cmd
}

func (c *Cli) newGenerateCommand() *cobra.Command {
	opts := passgen.DefaultOptions()
	var noUpper, noLower, noDigits, noSymbols bool

	cmd := &cobra.Command{
		Use:     "generate",
		Short:   "Generate a random password",
		Example: "  vaultkeeper generate --length 24 --no-symbols",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Upper = !noUpper
			opts.Lower = !noLower
			opts.Digits = !noDigits
			opts.Symbols = !noSymbols

			password, err := generatePassword(opts)
			if err != nil {
				return err
			}
			c.io.Println(password)
			return nil
		},
	}

	addGeneratorFlags(cmd, &opts.Length, &noUpper, &noLower, &noDigits, &noSymbols)
	return cmd
}

func addGeneratorFlags(cmd *cobra.Command, length *int, noUpper, noLower, noDigits, noSymbols *bool) {
	cmd.Flags().IntVar(length, "length", passgen.DefaultLength, "Generated password length")
	cmd.Flags().BoolVar(noUpper, "no-upper", false, "Exclude uppercase letters")
	cmd.Flags().BoolVar(noLower, "no-lower", false, "Exclude lowercase letters")
	cmd.Flags().BoolVar(noDigits, "no-digits", false, "Exclude digits")
	cmd.Flags().BoolVar(noSymbols, "no-symbols", false, "Exclude symbols")
}

func generatePassword(opts passgen.Options) (string, error) {
	if opts.Charset() == "" {
		return "", usageErrorf("at least one character set must be enabled")
	}
	password, err := passgen.Generate(opts)
	if err != nil {
		return "", usageErrorf("%v", err)
	}
	return password, nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return usageErrorf("%s does not accept positional arguments", cmd.CommandPath())
	}
	return nil
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("%s requires %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > n {
			return usageErrorf("%s accepts at most %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// parseID разбирает идентификатор записи
func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, usageErrorf("invalid entry id %q", value)
	}
	return id, nil
}
