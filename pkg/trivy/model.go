package trivy

import (
	"github.com/aquasecurity/starboard-gate/pkg/apis/aquasecurity/v1alpha1"
)

// ScanReport is the subset of the `trivy image --format json` output the gate
// relies on.
type ScanReport struct {
	ArtifactName string       `json:"ArtifactName"`
	Results      []ScanResult `json:"Results"`
}

// ScanResult groups vulnerabilities found in a single target, e.g. the OS
// package database or a language specific lock file.
type ScanResult struct {
	Target string `json:"Target"`
	Class  string `json:"Class"`
	Type   string `json:"Type"`
	// Vulnerabilities is nil when trivy omits the listing for the target.
	Vulnerabilities []Vulnerability `json:"Vulnerabilities"`
}

type Vulnerability struct {
	VulnerabilityID  string            `json:"VulnerabilityID"`
	PkgName          string            `json:"PkgName"`
	InstalledVersion string            `json:"InstalledVersion"`
	FixedVersion     string            `json:"FixedVersion"`
	Title            string            `json:"Title"`
	Severity         v1alpha1.Severity `json:"Severity"`
	PrimaryURL       string            `json:"PrimaryURL"`
}
