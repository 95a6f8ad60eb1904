package main

import (
	"fmt"
	"os"

	"github.com/aquasecurity/starboard-gate/pkg/cmd"
	"github.com/aquasecurity/starboard-gate/pkg/gate"
	"k8s.io/klog/v2"

	// Load all known auth plugins
	_ "k8s.io/client-go/plugin/pkg/client/auth"
)

var (
	// These variables are populated by GoReleaser via ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"

	buildInfo = gate.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
)

// main is the entrypoint of the gate executable. It exits with status 1 when
// a vulnerability fails the gate and 2 on any other error.
func main() {
	err := cmd.Run(buildInfo, os.Args, os.Stdout, os.Stderr)
	klog.Flush()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cmd.ExitCode(err))
	}
}
