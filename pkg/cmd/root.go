package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
	"github.com/aquasecurity/starboard-gate/pkg/gate"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/klog/v2"
)

const (
	ExitCodeGateFailed = 1
	ExitCodeError      = 2
)

// Options overrides process-wide collaborators of the CLI.
type Options struct {
	// Environment replaces the process environment when not nil.
	Environment map[string]string
	// Runner runs kubectl and trivy executables. Defaults to os/exec.
	Runner ext.CommandRunner
}

func NewRootCmd(buildInfo gate.BuildInfo, args []string, outWriter io.Writer, errWriter io.Writer, opts Options) *cobra.Command {
	cf := genericclioptions.NewConfigFlags(true)
	// The namespace always comes from DEPLOYMENT_NAMESPACE.
	cf.Namespace = nil
	kubeFlags := pflag.NewFlagSet("kubeconfig", pflag.ContinueOnError)
	cf.AddFlags(kubeFlags)

	rootCmd := &cobra.Command{
		Use:   "starboard-gate",
		Short: "Fail a deployment pipeline when images of a Deployment have vulnerabilities",
		Long: `Scans container images of a Deployment with Trivy and exits with status 1
if any vulnerability matches the configured severity threshold.

Configured with environment variables:
  DEPLOYMENT_NAME         name of the Deployment (required)
  DEPLOYMENT_NAMESPACE    namespace of the Deployment (required)
  SEVERITY                LOW, HIGH, or CRITICAL (required)
  GATE_DEPLOYMENT_SOURCE  kubectl (default) or api
  GATE_KUBECTL_PATH       kubectl executable (default kubectl)
  GATE_TRIVY_PATH         trivy executable (default trivy)
  GATE_TRIVY_CACHE_DIR    trivy cache directory
  GATE_TRIVY_SKIP_DB_UPDATE  skip trivy database update (default false)
  GATE_LOG_DEV_MODE       human readable logs (default false)`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGate(cmd.Context(), buildInfo, cf, kubectlGlobalFlags(kubeFlags), opts, outWriter, errWriter)
		},
	}

	rootCmd.AddCommand(NewVersionCmd(buildInfo, outWriter))
	rootCmd.AddCommand(NewConfigCmd(opts, outWriter))

	rootCmd.Flags().AddFlagSet(kubeFlags)
	addKlogFlags(rootCmd.PersistentFlags())

	rootCmd.SetArgs(args[1:])
	rootCmd.SetOut(outWriter)
	rootCmd.SetErr(errWriter)

	return rootCmd
}

// Run is the entry point of the gate CLI. It runs the specified
// command based on the specified args.
func Run(buildInfo gate.BuildInfo, args []string, outWriter io.Writer, errWriter io.Writer) error {
	return NewRootCmd(buildInfo, args, outWriter, errWriter, Options{}).Execute()
}

// ExitCode maps an error returned by Run to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var failedErr *gate.FailedError
	if errors.As(err, &failedErr) {
		return ExitCodeGateFailed
	}
	return ExitCodeError
}

// addKlogFlags registers klog verbosity, which controls client-go logging,
// as -v. Other klog flags are not exposed.
func addKlogFlags(flags *pflag.FlagSet) {
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if v := klogFlags.Lookup("v"); v != nil {
		flags.AddGoFlag(v)
	}
}

// kubectlGlobalFlags returns the kubeconfig flags set on the command line
// in the --name=value form accepted by kubectl.
func kubectlGlobalFlags(flags *pflag.FlagSet) []string {
	var args []string
	flags.VisitAll(func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			for _, v := range sv.GetSlice() {
				args = append(args, fmt.Sprintf("--%s=%s", f.Name, v))
			}
			return
		}
		args = append(args, fmt.Sprintf("--%s=%s", f.Name, f.Value.String()))
	})
	return args
}
