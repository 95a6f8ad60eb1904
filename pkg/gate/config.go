package gate

import (
	"fmt"

	"github.com/aquasecurity/starboard-gate/pkg/apis/aquasecurity/v1alpha1"
	"github.com/aquasecurity/starboard-gate/pkg/kube"
	"github.com/aquasecurity/starboard-gate/pkg/trivy"
	"github.com/caarlos0/env/v6"
)

// DeploymentSource selects how the Deployment manifest is fetched.
type DeploymentSource string

const (
	// DeploymentSourceKubectl runs the kubectl executable.
	DeploymentSourceKubectl DeploymentSource = "kubectl"
	// DeploymentSourceAPI calls the Kubernetes API server with client-go.
	DeploymentSourceAPI DeploymentSource = "api"
)

// BuildInfo holds build metadata populated via ldflags.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Config holds settings of a single gate run.
type Config struct {
	DeploymentName      string `env:"DEPLOYMENT_NAME,required" json:"deploymentName"`
	DeploymentNamespace string `env:"DEPLOYMENT_NAMESPACE,required" json:"deploymentNamespace"`
	// Severity is the threshold. It's not validated; values other than LOW,
	// HIGH, and CRITICAL never fail the gate.
	Severity string `env:"SEVERITY,required" json:"severity"`

	DeploymentSource  string `env:"GATE_DEPLOYMENT_SOURCE" envDefault:"kubectl" json:"deploymentSource"`
	KubectlPath       string `env:"GATE_KUBECTL_PATH" envDefault:"kubectl" json:"kubectlPath"`
	TrivyPath         string `env:"GATE_TRIVY_PATH" envDefault:"trivy" json:"trivyPath"`
	TrivyCacheDir     string `env:"GATE_TRIVY_CACHE_DIR" json:"trivyCacheDir,omitempty"`
	TrivySkipDBUpdate bool   `env:"GATE_TRIVY_SKIP_DB_UPDATE" envDefault:"false" json:"trivySkipDBUpdate"`
	LogDevMode        bool   `env:"GATE_LOG_DEV_MODE" envDefault:"false" json:"logDevMode"`
}

// GetConfig parses Config from the specified environment. If environment
// is nil, the process environment is used.
func GetConfig(environment map[string]string) (Config, error) {
	var config Config
	err := env.Parse(&config, env.Options{Environment: environment})
	if err != nil {
		return Config{}, err
	}
	if _, err := config.GetDeploymentSource(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// GetDeployment returns the Deployment to be checked.
func (c Config) GetDeployment() kube.Object {
	return kube.Object{
		Kind:      kube.KindDeployment,
		Name:      c.DeploymentName,
		Namespace: c.DeploymentNamespace,
	}
}

func (c Config) GetThreshold() v1alpha1.Severity {
	return v1alpha1.Severity(c.Severity)
}

func (c Config) GetDeploymentSource() (DeploymentSource, error) {
	switch source := DeploymentSource(c.DeploymentSource); source {
	case DeploymentSourceKubectl, DeploymentSourceAPI:
		return source, nil
	default:
		return "", fmt.Errorf("unrecognized deployment source: %q, must be one of: %s, %s",
			c.DeploymentSource, DeploymentSourceKubectl, DeploymentSourceAPI)
	}
}

func (c Config) GetTrivyConfig() trivy.Config {
	return trivy.Config{
		Executable:   c.TrivyPath,
		CacheDir:     c.TrivyCacheDir,
		SkipDBUpdate: c.TrivySkipDBUpdate,
	}
}
