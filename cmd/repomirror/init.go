// SPDX-License-Identifier: MIT
package repomirror

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skaphos/repomirror/internal/config"
	"github.com/skaphos/repomirror/internal/registry"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Bootstrap a RepoMirror configuration",
	Long:  "Creates a RepoMirror config file in the current directory by default, with an empty repository registry next to it.",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		cfgPath, err := config.InitConfigPath(configOverride(), cwd)
		if err != nil {
			return err
		}
		if _, err := os.Stat(cfgPath); err == nil && !force {
			return fmt.Errorf("config already exists at %q (use --force to overwrite)", cfgPath)
		}

		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		regPath := config.ResolveRegistryPath(cfgPath, &cfg)
		if _, err := os.Stat(regPath); os.IsNotExist(err) {
			if err := registry.Save(&registry.Registry{}, regPath); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote config to %s\n", cfgPath); err != nil {
			return err
		}
		debugf(cmd, "registry: %s", regPath)
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite existing config without prompting")

	rootCmd.AddCommand(initCmd)
}
