package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement is an external executable the media pipeline runs.
type Requirement struct {
	Name    string
	Command string
	Purpose string
}

// Status is the resolved state of one Requirement. Path is set only when
// Available.
type Status struct {
	Name      string
	Command   string
	Purpose   string
	Available bool
	Path      string
	Detail    string
}

// CheckBinaries resolves every requirement against PATH (or as given when
// the command is a path) and reports availability in input order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, resolve(req))
	}
	return results
}

func resolve(req Requirement) Status {
	status := Status{
		Name:    req.Name,
		Command: strings.TrimSpace(req.Command),
		Purpose: strings.TrimSpace(req.Purpose),
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}
