// Package httpruntime implements inference.Runtime against a model server
// reachable over HTTP.
//
// The server exposes:
//
//	POST {base}/v1/models                 {"task","model","config","device"} -> {"id","device"}
//	POST {base}/v1/models/{id}/infer      {"inputs":{...}}                    -> {"outputs":{...}}
//	POST {base}/v1/models/{id}/device     {"device"}                          -> {"device"}
//
// Errors are reported with a non-2xx status and an {"error": "..."} body.
package httpruntime

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/mmtools/pkg/inference"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/mmtools", "httpruntime")

// Runtime is a remote model server client.
type Runtime struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

var _ inference.Runtime = (*Runtime)(nil)

// New returns a runtime for the server at baseURL.
func New(baseURL string) (*Runtime, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid inference endpoint: %q", baseURL)
	}
	return &Runtime{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
	}, nil
}

// WithHTTPClient sets the HTTP client.
func (r *Runtime) WithHTTPClient(client *http.Client) *Runtime {
	r.httpClient = client
	return r
}

// WithToken sets the bearer token sent with every request.
func (r *Runtime) WithToken(token string) *Runtime {
	r.token = token
	return r
}

// Load implements inference.Runtime
func (r *Runtime) Load(ctx context.Context, spec *inference.Spec) (inference.Model, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "task", spec.Task)
	if err == nil && spec.Model != "" {
		body, err = sjson.SetBytes(body, "model", spec.Model)
	}
	if err == nil && len(spec.Config) > 0 {
		body, err = sjson.SetBytes(body, "config", spec.Config)
	}
	if err == nil {
		body, err = sjson.SetBytes(body, "device", spec.Device)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to build load request")
	}

	res, err := r.post(ctx, "/v1/models", body)
	if err != nil {
		return nil, errors.WithMessagef(err, "failed to load model %s for %s", spec.Model, spec.Task)
	}
	id := res.Get("id").String()
	if id == "" {
		return nil, errors.Errorf("model server did not return model id for %s", spec.Task)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "remote_model_loaded",
		"id", id,
		"task", spec.Task,
		"model", spec.Model,
	)

	return &model{
		rt:     r,
		id:     id,
		device: values.StringsCoalesce(res.Get("device").String(), spec.Device),
	}, nil
}

func (r *Runtime) post(ctx context.Context, path string, body []byte) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(data))
		}
		return gjson.Result{}, errors.Errorf("model server returned %d: %s", resp.StatusCode, msg)
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, errors.New("model server returned invalid JSON")
	}
	return gjson.ParseBytes(data), nil
}

type model struct {
	rt *Runtime
	id string

	lock   sync.RWMutex
	device string
}

func (m *model) Infer(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "inputs", inputs)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build infer request")
	}
	res, err := m.rt.post(ctx, "/v1/models/"+url.PathEscape(m.id)+"/infer", body)
	if err != nil {
		return nil, errors.WithMessagef(err, "inference failed on model %s", m.id)
	}
	outputs, ok := res.Get("outputs").Value().(map[string]any)
	if !ok {
		return nil, errors.Errorf("model %s returned no outputs", m.id)
	}
	return outputs, nil
}

func (m *model) ToDevice(ctx context.Context, device string) error {
	body, err := sjson.SetBytes([]byte(`{}`), "device", device)
	if err != nil {
		return errors.Wrap(err, "failed to build device request")
	}
	res, err := m.rt.post(ctx, "/v1/models/"+url.PathEscape(m.id)+"/device", body)
	if err != nil {
		return errors.WithMessagef(err, "failed to move model %s to %s", m.id, device)
	}

	m.lock.Lock()
	m.device = values.StringsCoalesce(res.Get("device").String(), device)
	m.lock.Unlock()
	return nil
}

func (m *model) Device() string {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.device
}
