package cli

import (
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultkeeper/internal/vault"
)

const shellPrompt = "vaultkeeper> "

func (c *Cli) newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive session that locks itself after inactivity",
		Long: "Shell unlocks the vault once and reads commands until 'exit'.\n" +
			"After an inactivity lock the master password is asked again.",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}
			c.interactive = true
			defer func() { c.interactive = false }()

			c.io.Println("=== vaultkeeper shell ===")
			c.io.Println("Type 'help' for commands, 'lock' to lock, 'exit' to quit.")
			c.io.Println("")

			for {
				if err := ctx.Err(); err != nil {
					return nil
				}

				line, err := c.io.ReadInput(shellPrompt)
				if errors.Is(err, io.EOF) {
					c.io.Println("")
					return nil
				}
				if err != nil {
					return err
				}

				args, err := splitArgs(line)
				if err != nil {
					c.io.Println("Error:", err)
					continue
				}
				if len(args) == 0 {
					continue
				}

				switch args[0] {
				case "exit", "quit":
					return nil
				case "lock":
					v.Lock()
					c.io.Println("Vault locked.")
					continue
				}

				if err := c.runShellCommand(cmd, v, args); err != nil {
					c.io.Println("Error:", err)
				}
			}
		},
	}
}

// runShellCommand выполняет одну строку shell на свежем дереве команд
func (c *Cli) runShellCommand(parent *cobra.Command, v vault.Service, args []string) error {
	root := &cobra.Command{
		Use:           "vaultkeeper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.io)
	root.SetErr(c.io)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})
	root.CompletionOptions.DisableDefaultCmd = true
	c.addCommands(root)
	root.SetArgs(args)

	c.logger.Debug("shell command",
		slog.String("command", args[0]),
		slog.Bool("unlocked", v.IsUnlocked()),
	)

	v.Touch()
	return mapCommandError(root.ExecuteContext(parent.Context()))
}

// splitArgs делит строку на аргументы; поддерживаются кавычки ' и " и экранирование \
func splitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false
	escaped := false

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, usageErrorf("unterminated quote")
	}
	if escaped {
		return nil, usageErrorf("trailing backslash")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
