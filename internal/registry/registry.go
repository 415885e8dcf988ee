// internal/registry/registry.go
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"dispatch-gateway/internal/events"
	"dispatch-gateway/internal/metrics"
	"dispatch-gateway/internal/model"
	"dispatch-gateway/internal/namespace"
)

const uploadBodyShape = `expected body {"script": "<source>", "dispatch_config": {"limits": {"cpuMs": <int>, "memory": <int>}}}`

// MetadataStore is the slice of the relational store the workflow needs.
// Satisfied by *storage.Storage.
type MetadataStore interface {
	UpsertDispatchLimits(ctx context.Context, l *model.DispatchLimits) error
	DispatchLimits(ctx context.Context, scriptID string) (*model.DispatchLimits, error)
	OutboundWorker(ctx context.Context, scriptID string) (*model.OutboundWorker, error)
}

// Registry orchestrates script uploads, ownership listing and dispatch. It is
// stateless: every request reads and writes through the injected adapters,
// nothing is cached across requests.
//
// The upload sequence is deliberately not atomic. The ownership check (read
// tags) and the claim (add tags) bracket the namespace write with no lock or
// transaction, so two concurrent uploads of the same unclaimed name can both
// pass the check and both tag the script. Known gap, kept as-is; see the
// concurrency test in registry_test.go.
type Registry struct {
	store  MetadataStore
	ns     namespace.Client
	events *events.Publisher
}

func New(store MetadataStore, ns namespace.Client, pub *events.Publisher) *Registry {
	return &Registry{
		store:  store,
		ns:     ns,
		events: pub,
	}
}

// Upload validates ownership of name, writes body to the namespace, persists
// limits when present, and tags the script with the customer's id and plan.
func (r *Registry) Upload(ctx context.Context, customer *model.Customer, name string, body []byte) error {
	if !namespace.ValidScriptName(name) {
		return &InvalidInputError{Msg: "invalid script name"}
	}

	tags, err := r.ns.Tags(name)
	if err != nil {
		return &InternalError{Op: "tag lookup", Err: err}
	}
	if len(tags) > 0 && !contains(tags, customer.ID.String()) {
		metrics.UploadConflicts.Inc()
		return ErrNameReserved
	}

	var req model.UploadRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return &InvalidInputError{Msg: uploadBodyShape}
	}
	if req.Script == "" {
		return &InvalidInputError{Msg: "missing script field; " + uploadBodyShape}
	}

	// Create-or-replace. A platform rejection carries its own diagnostic and
	// is returned untranslated so the handler can forward the payload.
	if err := r.ns.PutScript(name, req.Script); err != nil {
		var upstream *namespace.UpstreamError
		if errors.As(err, &upstream) {
			return upstream
		}
		return &InternalError{Op: "script upload", Err: err}
	}

	// Limits are only persisted when at least one ceiling is set. An empty
	// row would pin "no limits" and mask future platform-default changes.
	if limits := req.DispatchConfig.Limits; limits != nil && !limits.Empty() {
		row := *limits
		row.ScriptID = name
		if err := r.store.UpsertDispatchLimits(ctx, &row); err != nil {
			return &InternalError{Op: "persist limits", Err: err}
		}
	}

	// The script is live from here on. Tag bookkeeping failures are an
	// internal consistency problem, not the uploader's: log and move on.
	if err := r.ns.AddTags(name, customer.ID.String(), customer.PlanType); err != nil {
		log.Printf("[Registry] Failed to tag script %s for customer %s: %v", name, customer.ID, err)
	}

	r.events.PublishUpload(events.UploadEvent{
		Script:     name,
		CustomerID: customer.ID.String(),
		PlanType:   customer.PlanType,
		UploadedAt: time.Now().UTC(),
	})
	metrics.UploadsTotal.WithLabelValues(customer.PlanType).Inc()
	return nil
}

// List returns the names of every script tagged with the customer's id.
// No uploads means an empty list, not an error.
func (r *Registry) List(ctx context.Context, customer *model.Customer) ([]string, error) {
	names, err := r.ns.ScriptsByTag(customer.ID.String())
	if err != nil {
		return nil, &InternalError{Op: "list scripts", Err: err}
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Dispatch resolves name to a handle configured with its stored limits and
// forwards req to it. Resolution never fails by itself; a missing script only
// surfaces when the handle is invoked, and every invocation failure comes
// back as a *DispatchError regardless of cause.
func (r *Registry) Dispatch(ctx context.Context, name string, req *http.Request) (*http.Response, error) {
	metrics.DispatchTotal.WithLabelValues(name).Inc()

	limits, err := r.store.DispatchLimits(ctx, name)
	if err != nil {
		return nil, &InternalError{Op: "resolve limits", Err: err}
	}

	// The association is read here but nothing populates the table yet: the
	// outbound-worker feature is unfinished and the write path is absent on
	// purpose. Flagged rather than guessed at.
	worker, err := r.store.OutboundWorker(ctx, name)
	if err != nil {
		return nil, &InternalError{Op: "resolve outbound worker", Err: err}
	}
	if worker != nil {
		log.Printf("[Registry] Script %s has outbound worker %s (not yet applied)", name, worker.OutboundScriptID)
	}

	handle := r.ns.Resolve(name, limits)
	resp, err := handle.Invoke(req)
	if err != nil {
		metrics.DispatchFailures.WithLabelValues(name).Inc()
		return nil, &DispatchError{Script: name, Err: err}
	}
	return resp, nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
