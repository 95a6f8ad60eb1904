package gate

import (
	"github.com/aquasecurity/starboard-gate/pkg/apis/aquasecurity/v1alpha1"
	"github.com/aquasecurity/starboard-gate/pkg/trivy"
)

// failingSeverities maps a threshold to the severities that fail the gate.
// MEDIUM is absent from every set. Thresholds not listed here never fail.
var failingSeverities = map[v1alpha1.Severity][]v1alpha1.Severity{
	v1alpha1.SeverityLow: {
		v1alpha1.SeverityLow,
		v1alpha1.SeverityHigh,
		v1alpha1.SeverityCritical,
	},
	v1alpha1.SeverityHigh: {
		v1alpha1.SeverityHigh,
		v1alpha1.SeverityCritical,
	},
	v1alpha1.SeverityCritical: {
		v1alpha1.SeverityCritical,
	},
}

// FailingSeverities returns the severities that fail the gate for the
// specified threshold. An unrecognized threshold yields an empty slice.
func FailingSeverities(threshold v1alpha1.Severity) []v1alpha1.Severity {
	severities := failingSeverities[threshold]
	result := make([]v1alpha1.Severity, len(severities))
	copy(result, severities)
	return result
}

// IsFailing returns true if a vulnerability of the given severity fails the
// gate for the specified threshold.
func IsFailing(threshold, severity v1alpha1.Severity) bool {
	for _, s := range failingSeverities[threshold] {
		if s == severity {
			return true
		}
	}
	return false
}

// Evaluate returns the first vulnerability in the report that fails the gate,
// walking results and then vulnerabilities in report order.
func Evaluate(threshold v1alpha1.Severity, report trivy.ScanReport) (Finding, bool) {
	for _, result := range report.Results {
		for _, vulnerability := range result.Vulnerabilities {
			if IsFailing(threshold, vulnerability.Severity) {
				return Finding{
					Target:        result.Target,
					Vulnerability: vulnerability,
				}, true
			}
		}
	}
	return Finding{}, false
}
