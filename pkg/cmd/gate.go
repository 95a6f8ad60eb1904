package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
	"github.com/aquasecurity/starboard-gate/pkg/gate"
	"github.com/aquasecurity/starboard-gate/pkg/kube"
	"github.com/aquasecurity/starboard-gate/pkg/trivy"
	"k8s.io/cli-runtime/pkg/genericclioptions"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

func runGate(ctx context.Context, buildInfo gate.BuildInfo, cf *genericclioptions.ConfigFlags, kubectlFlags []string, opts Options, out io.Writer, errWriter io.Writer) error {
	_, _ = fmt.Fprintln(out, "Scan started")

	config, err := gate.GetConfig(opts.Environment)
	if err != nil {
		return fmt.Errorf("getting config: %w", err)
	}
	_, _ = fmt.Fprintln(out, config.DeploymentName)
	_, _ = fmt.Fprintln(out, config.DeploymentNamespace)

	logger := zap.New(zap.UseDevMode(config.LogDevMode), zap.WriteTo(errWriter)).WithName("gate")
	logger.V(1).Info("Starting deployment gate", "version", buildInfo.Version, "commit", buildInfo.Commit)

	runner := opts.Runner
	if runner == nil {
		runner = ext.NewExecRunner(errWriter)
	}
	inspector, err := newDeploymentInspector(config, cf, kubectlFlags, runner)
	if err != nil {
		return err
	}
	scanner := trivy.NewScanner(runner, config.GetTrivyConfig())

	verdict, err := gate.New(inspector, scanner, logger).Run(ctx, config.GetDeployment(), config.GetThreshold())
	if err != nil {
		return err
	}
	if err := verdict.Err(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(out, "Scan successfull")
	return nil
}

func newDeploymentInspector(config gate.Config, cf *genericclioptions.ConfigFlags, kubectlFlags []string, runner ext.CommandRunner) (kube.DeploymentInspector, error) {
	source, err := config.GetDeploymentSource()
	if err != nil {
		return nil, err
	}
	switch source {
	case gate.DeploymentSourceAPI:
		kubeConfig, err := cf.ToRESTConfig()
		if err != nil {
			return nil, fmt.Errorf("loading kubeconfig: %w", err)
		}
		clientset, err := kubernetes.NewForConfig(kubeConfig)
		if err != nil {
			return nil, err
		}
		return kube.NewClientsetInspector(clientset), nil
	default:
		return kube.NewKubectlInspector(runner, config.KubectlPath, kubectlFlags...), nil
	}
}
