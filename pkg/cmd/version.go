package cmd

import (
	"fmt"
	"io"

	"github.com/aquasecurity/starboard-gate/pkg/gate"
	"github.com/spf13/cobra"
)

func NewVersionCmd(buildInfo gate.BuildInfo, outWriter io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _ = fmt.Fprintf(outWriter, "Version: %s\nCommit:  %s\nDate:    %s\n",
				buildInfo.Version, buildInfo.Commit, buildInfo.Date)
			return nil
		},
	}
}
