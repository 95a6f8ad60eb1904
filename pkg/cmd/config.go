package cmd

import (
	"fmt"
	"io"

	"github.com/aquasecurity/starboard-gate/pkg/gate"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

func NewConfigCmd(opts Options, outWriter io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View the configuration parameters read from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := gate.GetConfig(opts.Environment)
			if err != nil {
				return fmt.Errorf("getting config: %w", err)
			}
			out, err := yaml.Marshal(config)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(outWriter, string(out))
			return nil
		},
	}
	return cmd
}
