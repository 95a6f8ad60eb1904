package gate

import (
	"context"
	"fmt"

	"github.com/aquasecurity/starboard-gate/pkg/apis/aquasecurity/v1alpha1"
	"github.com/aquasecurity/starboard-gate/pkg/kube"
	"github.com/aquasecurity/starboard-gate/pkg/trivy"
	"github.com/go-logr/logr"
	"github.com/google/go-containerregistry/pkg/name"
)

// Scanner scans a single container image for vulnerabilities.
type Scanner interface {
	Scan(ctx context.Context, imageRef string) (trivy.ScanReport, error)
}

// Finding is the vulnerability that failed the gate.
type Finding struct {
	Image string
	// Registry and Repository are blank if Image cannot be parsed as an
	// image reference.
	Registry      string
	Repository    string
	Target        string
	Vulnerability trivy.Vulnerability
}

// Verdict is the outcome of a gate run.
type Verdict struct {
	Passed bool
	// Finding is set when the gate failed.
	Finding *Finding
}

// Err returns a FailedError if the gate failed, nil otherwise.
func (v Verdict) Err() error {
	if v.Passed {
		return nil
	}
	return &FailedError{Verdict: v}
}

// FailedError is returned when a vulnerability fails the gate.
type FailedError struct {
	Verdict Verdict
}

func (e *FailedError) Error() string {
	f := e.Verdict.Finding
	if f == nil {
		return "deployment gate failed"
	}
	return fmt.Sprintf("deployment gate failed: %s vulnerability %s in package %s found in image %s",
		f.Vulnerability.Severity, f.Vulnerability.VulnerabilityID, f.Vulnerability.PkgName, f.Image)
}

// Gate checks container images of a Deployment against a severity threshold.
type Gate struct {
	inspector kube.DeploymentInspector
	scanner   Scanner
	logger    logr.Logger
}

func New(inspector kube.DeploymentInspector, scanner Scanner, logger logr.Logger) *Gate {
	return &Gate{
		inspector: inspector,
		scanner:   scanner,
		logger:    logger,
	}
}

// Run scans images of the specified Deployment one by one in manifest order.
// It returns as soon as a vulnerability fails the gate, without scanning the
// remaining images. An error is returned only if the Deployment could not be
// inspected or an image could not be scanned.
func (g *Gate) Run(ctx context.Context, deployment kube.Object, threshold v1alpha1.Severity) (Verdict, error) {
	log := g.logger.WithValues("deployment", deployment.Name, "namespace", deployment.Namespace, "threshold", threshold)

	images, err := g.inspector.GetContainerImages(ctx, deployment)
	if err != nil {
		return Verdict{}, err
	}
	log.V(1).Info("Resolved container images", "images", images)

	for _, image := range images {
		log.V(1).Info("Scanning image", "image", image)
		report, err := g.scanner.Scan(ctx, image)
		if err != nil {
			return Verdict{}, err
		}
		finding, found := Evaluate(threshold, report)
		if !found {
			continue
		}
		finding.Image = image
		finding.Registry, finding.Repository = parseImageRef(image)
		log.Info("Vulnerability fails the gate",
			"image", image,
			"target", finding.Target,
			"vulnerabilityID", finding.Vulnerability.VulnerabilityID,
			"severity", finding.Vulnerability.Severity)
		return Verdict{Passed: false, Finding: &finding}, nil
	}

	log.V(1).Info("No vulnerability fails the gate", "imageCount", len(images))
	return Verdict{Passed: true}, nil
}

func parseImageRef(image string) (registry, repository string) {
	ref, err := name.ParseReference(image)
	if err != nil {
		return "", ""
	}
	return ref.Context().RegistryStr(), ref.Context().RepositoryStr()
}
