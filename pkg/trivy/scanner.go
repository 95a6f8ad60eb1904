package trivy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
)

const DefaultExecutable = "trivy"

// ErrMalformedReport is returned when trivy output is valid JSON but does not
// have the shape of a scan report.
var ErrMalformedReport = errors.New("malformed scan report")

// Config holds the options passed to the trivy executable.
type Config struct {
	// Executable is the name or path of the trivy binary.
	Executable   string
	CacheDir     string
	SkipDBUpdate bool
}

func (c Config) GetExecutable() string {
	if c.Executable == "" {
		return DefaultExecutable
	}
	return c.Executable
}

// Scanner scans container images by running the trivy CLI in a child process.
type Scanner struct {
	runner ext.CommandRunner
	config Config
}

// NewScanner constructs a new Scanner with the specified ext.CommandRunner
// and Config.
func NewScanner(runner ext.CommandRunner, config Config) *Scanner {
	return &Scanner{
		runner: runner,
		config: config,
	}
}

// Scan runs `trivy image --format json` against imageRef and decodes the report
// written to standard output.
func (s *Scanner) Scan(ctx context.Context, imageRef string) (ScanReport, error) {
	out, err := s.runner.Run(ctx, s.config.GetExecutable(), s.args(imageRef)...)
	if err != nil {
		return ScanReport{}, fmt.Errorf("scanning image %s: %w", imageRef, err)
	}
	report, err := ParseScanReport(out)
	if err != nil {
		return ScanReport{}, fmt.Errorf("parsing scan report for image %s: %w", imageRef, err)
	}
	return report, nil
}

func (s *Scanner) args(imageRef string) []string {
	args := []string{
		"image",
		"-f",
		"json",
	}
	if s.config.CacheDir != "" {
		args = append(args, "--cache-dir", s.config.CacheDir)
	}
	if s.config.SkipDBUpdate {
		args = append(args, "--skip-db-update")
	}
	return append(args, imageRef)
}

// ParseScanReport decodes trivy JSON output. The Results array is required,
// whereas a result without the Vulnerabilities array is treated as having
// no vulnerabilities.
func ParseScanReport(data []byte) (ScanReport, error) {
	var raw struct {
		ArtifactName string        `json:"ArtifactName"`
		Results      *[]ScanResult `json:"Results"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return ScanReport{}, err
	}
	if raw.Results == nil {
		return ScanReport{}, fmt.Errorf("%w: Results not found", ErrMalformedReport)
	}
	return ScanReport{
		ArtifactName: raw.ArtifactName,
		Results:      *raw.Results,
	}, nil
}
