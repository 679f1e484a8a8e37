package core

import (
	"net/http"
	"sync"
)

// Exchange is one request moving through the dispatch chain.
type Exchange struct {
	Method  string
	Path    string
	Header  http.Header
	RPCType string

	Response Response

	mu         sync.RWMutex
	attributes map[string]string
}

// Response is the response an exchange will produce.
type Response struct {
	Status  int
	Header  http.Header
	Body    []byte
	Written bool
}

// NewExchange creates an exchange for an HTTP request.
func NewExchange(method, path string, header http.Header) *Exchange {
	if header == nil {
		header = http.Header{}
	}
	return &Exchange{
		Method:  method,
		Path:    path,
		Header:  header,
		RPCType: "http",
		Response: Response{
			Status: http.StatusOK,
			Header: http.Header{},
		},
		attributes: map[string]string{},
	}
}

// Respond writes a terminal response. Later plugins should check Response.Written.
func (e *Exchange) Respond(status int, contentType string, body []byte) {
	e.Response.Status = status
	if contentType != "" {
		e.Response.Header.Set("Content-Type", contentType)
	}
	e.Response.Body = body
	e.Response.Written = true
}

// SetAttribute stores an exchange attribute.
func (e *Exchange) SetAttribute(key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attributes[key] = value
}

// Attribute returns an exchange attribute.
func (e *Exchange) Attribute(key string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.attributes[key]
	return v, ok
}

// Attributes returns a copy of all exchange attributes.
func (e *Exchange) Attributes() map[string]string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]string, len(e.attributes))
	for k, v := range e.attributes {
		out[k] = v
	}
	return out
}
