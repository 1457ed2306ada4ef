package cli

import (
	"github.com/spf13/cobra"

	"github.com/iudanet/vaultkeeper/internal/vault"
)

func (c *Cli) newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the vault and set the master password",
		Example: "  vaultkeeper init\n" +
			"  vaultkeeper --db ./pm.sqlite init",
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			v, err := c.openVault(ctx)
			if err != nil {
				return err
			}

			exists, err := v.MasterExists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return vault.ErrMasterExists
			}

			password, err := c.newMasterPassword()
			if err != nil {
				return err
			}

			if _, err := v.CreateMaster(ctx, password); err != nil {
				return err
			}

			c.io.Println("✓ Vault initialized:", c.dbPath)
			return nil
		},
	}
}

// newMasterPassword берет пароль из env или файла, иначе запрашивает дважды
func (c *Cli) newMasterPassword() (string, error) {
	if envPassword, ok := c.lookupEnv(EnvMasterPassword); ok && envPassword != "" {
		return envPassword, nil
	}
	if c.globals.MasterPasswordFile != "" {
		return c.getMasterPassword("")
	}
	return c.readNewPassword("New master password: ", "Repeat master password: ")
}

func (c *Cli) newPasswdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change the master password and re-encrypt all stored passwords",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			v, err := c.unlock(ctx)
			if err != nil {
				return err
			}

			current, err := c.io.ReadPassword("Current master password: ")
			if err != nil {
				return err
			}
			next, err := c.readNewPassword("New master password: ", "Repeat new master password: ")
			if err != nil {
				return err
			}

			if err := v.ChangeMaster(ctx, current, next); err != nil {
				return err
			}

			c.io.Println("✓ Master password changed.")
			return nil
		},
	}
}
