// Package exttest provides test doubles for the ext package.
package exttest

import (
	"context"
	"fmt"
	"strings"

	"github.com/aquasecurity/starboard-gate/pkg/ext"
)

// Response is the canned result of a single command invocation.
type Response struct {
	Stdout []byte
	Err    error
}

// Runner is an ext.CommandRunner that returns canned responses keyed by the
// full command line, i.e. the program name followed by its space separated
// arguments. Every invocation is recorded in Calls.
type Runner struct {
	Responses map[string]Response
	Calls     []string
}

var _ ext.CommandRunner = &Runner{}

func NewRunner() *Runner {
	return &Runner{Responses: map[string]Response{}}
}

// On registers the response returned for the given command line.
func (r *Runner) On(commandLine string, stdout string, err error) *Runner {
	r.Responses[commandLine] = Response{Stdout: []byte(stdout), Err: err}
	return r
}

func (r *Runner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	commandLine := strings.Join(append([]string{name}, args...), " ")
	r.Calls = append(r.Calls, commandLine)
	response, ok := r.Responses[commandLine]
	if !ok {
		return nil, fmt.Errorf("unexpected command: %s", commandLine)
	}
	return response.Stdout, response.Err
}
