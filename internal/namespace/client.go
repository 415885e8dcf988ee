// internal/namespace/client.go
package namespace

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"

	"dispatch-gateway/internal/model"
)

// ErrScriptNotFound is returned by Handle.Invoke when the named script does
// not exist in the namespace. Existence is only checked at invocation time;
// Resolve never fails.
var ErrScriptNotFound = errors.New("namespace: script not found")

// UpstreamError carries the platform's own diagnostic for a rejected upload.
// The payload is forwarded verbatim to the uploader since the platform's
// message is more useful than anything the gateway could synthesize.
type UpstreamError struct {
	StatusCode int
	Payload    []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("namespace rejected request (status %d): %s", e.StatusCode, e.Payload)
}

// Client is the execution platform's dispatch namespace API: script bodies,
// the tag index, and lazy dispatch handles. One instance per process, shared
// across requests.
type Client interface {
	// PutScript creates or replaces a script body under name. A platform
	// rejection (validation failure) is returned as *UpstreamError.
	PutScript(name, body string) error
	ListScripts() ([]string, error)

	// Tags returns the tag set for a script name. A name with no tags and a
	// name with no script are indistinguishable here: both yield an empty set.
	Tags(name string) ([]string, error)
	// AddTags is additive; existing tags are kept.
	AddTags(name string, tags ...string) error
	ScriptsByTag(tag string) ([]string, error)

	// Reset removes every script (and its tags) from the namespace. This is
	// the only deletion path: individual scripts are never deleted, only
	// replaced by their owner or wiped by an administrative reset.
	Reset() error

	// Resolve returns a handle for the named script configured with the given
	// limits. It never fails; a missing script surfaces on Invoke.
	Resolve(name string, limits *model.DispatchLimits) Handle
}

// Handle is the second phase of the lazy resolve: invoking it forwards a
// request to the script and fails if the underlying target is absent.
type Handle interface {
	Invoke(r *http.Request) (*http.Response, error)
}

var scriptNameRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9_-]{0,62})$`)

// ValidScriptName reports whether name is acceptable as a namespace
// identifier.
func ValidScriptName(name string) bool {
	return scriptNameRe.MatchString(name)
}
