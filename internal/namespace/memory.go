// internal/namespace/memory.go
package namespace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"dispatch-gateway/internal/model"
)

// MemoryClient is an in-process dispatch namespace. It backs the demo mode
// (no platform credentials needed) and the test suites. Scripts are not
// actually executed; invoking one returns a canned echo response, which is
// enough to exercise every gateway path.
type MemoryClient struct {
	mu      sync.RWMutex
	scripts map[string]*memScript
}

type memScript struct {
	body string
	tags []string
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{scripts: make(map[string]*memScript)}
}

// PutScript stores the body, keeping any existing tags. An empty body is
// rejected the way the real platform rejects an invalid script: with a
// diagnostic payload the gateway forwards verbatim.
func (m *MemoryClient) PutScript(name, body string) error {
	if strings.TrimSpace(body) == "" {
		payload, _ := json.Marshal(map[string]any{
			"errors": []map[string]any{{"code": 10021, "message": "script body is empty"}},
		})
		return &UpstreamError{StatusCode: http.StatusBadRequest, Payload: payload}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scripts[name]; ok {
		s.body = body
		return nil
	}
	m.scripts[name] = &memScript{body: body}
	return nil
}

func (m *MemoryClient) ListScripts() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.scripts))
	for name := range m.scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryClient) Tags(name string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scripts[name]
	if !ok {
		return nil, nil
	}
	return append([]string(nil), s.tags...), nil
}

func (m *MemoryClient) AddTags(name string, tags ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.scripts[name]
	if !ok {
		return fmt.Errorf("namespace: no script named %q", name)
	}
	for _, t := range tags {
		s.tags = append(s.tags, t)
	}
	return nil
}

func (m *MemoryClient) ScriptsByTag(tag string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var names []string
	for name, s := range m.scripts {
		for _, t := range s.tags {
			if t == tag {
				names = append(names, name)
				break
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryClient) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = make(map[string]*memScript)
	return nil
}

func (m *MemoryClient) Resolve(name string, limits *model.DispatchLimits) Handle {
	return &memHandle{client: m, name: name, limits: limits}
}

type memHandle struct {
	client *MemoryClient
	name   string
	limits *model.DispatchLimits
}

// Invoke checks existence only now, matching the platform's lazy semantics.
func (h *memHandle) Invoke(r *http.Request) (*http.Response, error) {
	h.client.mu.RLock()
	_, ok := h.client.scripts[h.name]
	h.client.mu.RUnlock()
	if !ok {
		return nil, ErrScriptNotFound
	}

	body := map[string]any{
		"script": h.name,
		"method": r.Method,
		"path":   r.URL.Path,
	}
	if h.limits != nil {
		body["limits"] = h.limits
	}
	payload, _ := json.Marshal(body)

	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(payload)),
	}, nil
}
