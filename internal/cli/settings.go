package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iudanet/vaultkeeper/internal/models"
)

func (c *Cli) newSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change vault settings",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.openVault(cmd.Context())
			if err != nil {
				return err
			}

			theme, err := v.Theme(cmd.Context())
			if err != nil {
				return err
			}
			timeout, err := v.InactivityTimeout(cmd.Context())
			if err != nil {
				return err
			}

			c.io.Println("=== Settings ===")
			c.io.Printf("Theme:              %s\n", displayTheme(theme))
			c.io.Printf("Inactivity timeout: %s\n", formatTimeout(int(timeout.Minutes())))
			return nil
		},
	}

	cmd.AddCommand(c.newThemeCommand(), c.newTimeoutCommand())
	return cmd
}

func (c *Cli) newThemeCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "theme [light|dark]",
		Short:   "Show or set the UI theme",
		Example: "  vaultkeeper settings theme dark",
		Args:    maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.openVault(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				theme, err := v.Theme(cmd.Context())
				if err != nil {
					return err
				}
				c.io.Println(displayTheme(theme))
				return nil
			}

			if err := v.SetTheme(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.io.Printf("✓ Theme set to %s\n", args[0])
			return nil
		},
	}
}

func (c *Cli) newTimeoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "timeout [minutes]",
		Short: "Show or set the inactivity timeout in minutes (0 disables auto-lock)",
		Example: "  vaultkeeper settings timeout 5\n" +
			"  vaultkeeper settings timeout 0",
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.openVault(cmd.Context())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				timeout, err := v.InactivityTimeout(cmd.Context())
				if err != nil {
					return err
				}
				c.io.Println(strconv.Itoa(int(timeout.Minutes())))
				return nil
			}

			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return usageErrorf("invalid timeout %q: expected whole minutes", args[0])
			}
			if err := v.SetInactivityTimeout(cmd.Context(), minutes); err != nil {
				return err
			}
			c.io.Printf("✓ Inactivity timeout set to %s\n", formatTimeout(minutes))
			return nil
		},
	}
}

// displayTheme - незаданная тема показывается как светлая
func displayTheme(theme string) string {
	if theme == "" {
		return models.ThemeLight
	}
	return theme
}

func formatTimeout(minutes int) string {
	if minutes <= 0 {
		return "disabled"
	}
	return strconv.Itoa(minutes) + " min"
}
