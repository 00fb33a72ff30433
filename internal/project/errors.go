package project

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DSS32/thym/internal/plugin"
	"github.com/DSS32/thym/internal/plugin/action"
	"github.com/DSS32/thym/internal/plugin/fetch"
	"github.com/DSS32/thym/internal/plugin/plan"
)

// Standard errors returned by the project package.
var (
	// ErrDependencyCycle indicates plugins that depend on each other.
	ErrDependencyCycle = errors.New("dependency cycle")

	// ErrDependencyNotFound indicates a dependency without URL that no
	// search path provides.
	ErrDependencyNotFound = errors.New("dependency not found")

	// ErrUnknownPlatform indicates a platform without a registered layout.
	ErrUnknownPlatform = errors.New("unknown platform")
)

// CycleError lists the plugin ids forming a dependency cycle.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrDependencyCycle, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Is(target error) bool {
	return target == ErrDependencyCycle
}

// Code classifies a Status.
type Code string

// Status codes.
const (
	CodeOK              Code = "ok"
	CodeManifest        Code = "manifest"
	CodeManifestParse   Code = "manifest-parse"
	CodePlanning        Code = "planning"
	CodeExecution       Code = "execution"
	CodeFetch           Code = "fetch"
	CodeRegistry        Code = "registry"
	CodeDependencyCycle Code = "dependency-cycle"
	CodeInternal        Code = "internal"
)

// Status is the user facing outcome of an operation.
type Status struct {
	Code    Code
	Message string
	Cause   error
}

// OK reports whether the status is a success.
func (s Status) OK() bool {
	return s.Code == CodeOK
}

func (s Status) String() string {
	if s.OK() {
		return "ok"
	}
	return fmt.Sprintf("%s: %s", s.Code, s.Message)
}

// StatusFromError classifies err. A nil error yields an OK status.
func StatusFromError(err error) Status {
	if err == nil {
		return Status{Code: CodeOK}
	}

	var (
		merr *plugin.ManifestError
		xerr *action.ExecutionError
		ferr *fetch.FetchError
	)
	// Order matters: a dependency install fails inside an action, so the
	// causes nested in an ExecutionError win over the ExecutionError.
	switch {
	case errors.Is(err, ErrDependencyCycle):
		return Status{Code: CodeDependencyCycle, Message: "plugins depend on each other", Cause: err}
	case errors.As(err, &merr) && merr.Malformed:
		return Status{Code: CodeManifestParse, Message: fmt.Sprintf("plugin %s is broken", merr.Path), Cause: err}
	case errors.As(err, &merr):
		return Status{Code: CodeManifest, Message: fmt.Sprintf("cannot read %s", merr.Path), Cause: err}
	case errors.As(err, &ferr):
		return Status{Code: CodeFetch, Message: fmt.Sprintf("cannot fetch %s", ferr.URI), Cause: err}
	case errors.Is(err, plan.ErrMissingName):
		return Status{Code: CodePlanning, Message: "plugin has no name", Cause: err}
	case errors.Is(err, ErrUnknownPlatform):
		return Status{Code: CodePlanning, Message: "platform is not supported", Cause: err}
	case errors.Is(err, plugin.ErrNoPluginDirectory):
		return Status{Code: CodeRegistry, Message: "plugin is not installed", Cause: err}
	case errors.As(err, &xerr):
		msg := "installation step failed"
		if action.IsOverwriteRefused(err) {
			msg = "existing files would be overwritten"
		}
		return Status{Code: CodeExecution, Message: msg, Cause: err}
	default:
		return Status{Code: CodeInternal, Message: err.Error(), Cause: err}
	}
}
