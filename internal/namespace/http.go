// internal/namespace/http.go
package namespace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"dispatch-gateway/internal/model"
)

// HTTPClient talks to a remote dispatch namespace over its REST API.
// Endpoints, relative to the base URL:
//
//	PUT    /scripts/{name}        upload body
//	GET    /scripts               -> ["name", ...]  (?tag= filters)
//	DELETE /scripts               clear namespace
//	GET    /scripts/{name}/tags   -> ["tag", ...]
//	POST   /scripts/{name}/tags   append tags
//	ANY    /dispatch/{name}       forward a request to the script
//
// Dispatch responses carrying the X-Namespace-Error header are platform
// failures that never reached a script; anything else is the script's own
// response.
type HTTPClient struct {
	base  string
	token string
	http  *http.Client
}

const (
	dispatchErrorHeader         = "X-Namespace-Error"
	dispatchErrorScriptNotFound = "script-not-found"
)

func NewHTTPClient(baseURL, apiToken string) *HTTPClient {
	return &HTTPClient{
		base:  baseURL,
		token: apiToken,
		http:  &http.Client{},
	}
}

func (c *HTTPClient) do(method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.http.Do(req)
}

// doExpect runs a request and treats any non-2xx as an UpstreamError carrying
// the platform's response payload.
func (c *HTTPClient) doExpect(method, path string, body io.Reader) (*http.Response, error) {
	resp, err := c.do(method, path, body)
	if err != nil {
		return nil, fmt.Errorf("namespace request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(resp.Body)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Payload: payload}
	}
	return resp, nil
}

func (c *HTTPClient) PutScript(name, body string) error {
	resp, err := c.doExpect(http.MethodPut, "/scripts/"+url.PathEscape(name), bytes.NewBufferString(body))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *HTTPClient) listScripts(query string) ([]string, error) {
	resp, err := c.doExpect(http.MethodGet, "/scripts"+query, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		return nil, fmt.Errorf("failed to decode script list: %w", err)
	}
	return names, nil
}

func (c *HTTPClient) ListScripts() ([]string, error) {
	return c.listScripts("")
}

func (c *HTTPClient) ScriptsByTag(tag string) ([]string, error) {
	return c.listScripts("?tag=" + url.QueryEscape(tag))
}

func (c *HTTPClient) Tags(name string) ([]string, error) {
	resp, err := c.doExpect(http.MethodGet, "/scripts/"+url.PathEscape(name)+"/tags", nil)
	if err != nil {
		// A name the platform has never seen has zero tags; only real
		// failures propagate.
		var upstream *UpstreamError
		if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer resp.Body.Close()

	var tags []string
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

func (c *HTTPClient) AddTags(name string, tags ...string) error {
	payload, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	resp, err := c.doExpect(http.MethodPost, "/scripts/"+url.PathEscape(name)+"/tags", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *HTTPClient) Reset() error {
	resp, err := c.doExpect(http.MethodDelete, "/scripts", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *HTTPClient) Resolve(name string, limits *model.DispatchLimits) Handle {
	return &httpHandle{client: c, name: name, limits: limits}
}

type httpHandle struct {
	client *HTTPClient
	name   string
	limits *model.DispatchLimits
}

// Invoke forwards the inbound request to the platform's dispatch endpoint.
// Limits ride along as headers; the platform enforces them.
func (h *httpHandle) Invoke(r *http.Request) (*http.Response, error) {
	req, err := http.NewRequest(r.Method, h.client.base+"/dispatch/"+url.PathEscape(h.name), r.Body)
	if err != nil {
		return nil, err
	}
	req.Header = r.Header.Clone()
	if h.client.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.client.token)
	}
	if h.limits != nil {
		if h.limits.CPUMs != nil {
			req.Header.Set("X-Dispatch-Cpu-Ms", strconv.Itoa(*h.limits.CPUMs))
		}
		if h.limits.Memory != nil {
			req.Header.Set("X-Dispatch-Memory", strconv.Itoa(*h.limits.Memory))
		}
	}

	resp, err := h.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch request failed: %w", err)
	}
	// A script may legitimately answer 404, so the status code alone proves
	// nothing. The platform marks failures that never reached a script with
	// a header; everything without the marker is the script's own response
	// and goes back verbatim.
	if marker := resp.Header.Get(dispatchErrorHeader); marker != "" {
		resp.Body.Close()
		if marker == dispatchErrorScriptNotFound {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("dispatch failed in namespace: %s", marker)
	}
	return resp, nil
}
