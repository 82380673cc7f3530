package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/pkg/config"
)

const defaultConfigFile = "intervalbench.yaml"

// ErrConfigExists is returned when config init would overwrite a file.
var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the intervalbench configuration file",
	}

	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long:  "Write the default configuration as YAML. Use '-o -' to print it.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "-" {
				return config.WriteYAML(cmd.OutOrStdout(), config.Default())
			}

			return writeDefaultConfig(output, force)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultConfigFile, "Destination path, or '-' for stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func writeDefaultConfig(path string, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}

		return fmt.Errorf("create config: %w", err)
	}

	return closeAfter(f, config.WriteYAML(f, config.Default()))
}
