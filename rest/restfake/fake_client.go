package restfake

import (
	"context"
	"errors"
	"net/http"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/mediumroast/mediumroast-go/objects"
)

var _ objects.Transport = (*FakeClient)(nil)

// Call is one recorded request. Body holds the JSON encoding of what was sent, nil for none.
type Call struct {
	Method   string
	Endpoint string
	Body     []byte
}

type response struct {
	data []byte
	err  error
}

// FakeClient is an in-memory transport that records calls and replays canned responses
type FakeClient struct {
	responses map[string]response // endpoint to response
	calls     []Call
	lock      sync.RWMutex
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		responses: make(map[string]response),
	}
}

// Respond sets the body returned for endpoint
func (fc *FakeClient) Respond(endpoint string, data string) {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	fc.responses[endpoint] = response{data: []byte(data)}
}

// Fail makes every call to endpoint return err
func (fc *FakeClient) Fail(endpoint string, err error) {
	fc.lock.Lock()
	defer fc.lock.Unlock()
	fc.responses[endpoint] = response{err: err}
}

func (fc *FakeClient) GetObj(_ context.Context, endpoint string, body any) ([]byte, error) {
	method := http.MethodGet
	if body != nil {
		method = http.MethodPost
	}
	return fc.record(method, endpoint, body)
}

func (fc *FakeClient) PostObj(_ context.Context, endpoint string, body any) ([]byte, error) {
	return fc.record(http.MethodPost, endpoint, body)
}

// Calls returns a copy of the recorded calls in order
func (fc *FakeClient) Calls() []Call {
	fc.lock.RLock()
	defer fc.lock.RUnlock()
	calls := make([]Call, len(fc.calls))
	copy(calls, fc.calls)
	return calls
}

func (fc *FakeClient) record(method, endpoint string, body any) ([]byte, error) {
	var encoded []byte
	if body != nil {
		var err error
		if encoded, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}

	fc.lock.Lock()
	defer fc.lock.Unlock()
	fc.calls = append(fc.calls, Call{Method: method, Endpoint: endpoint, Body: encoded})

	resp, ok := fc.responses[endpoint]
	if !ok {
		return nil, errors.New("not found")
	}
	return resp.data, resp.err
}
