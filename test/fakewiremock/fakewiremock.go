// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package fakewiremock provides a fake WireMock HTTP server for unit tests,
serving a scripted sequence of "/__admin/mappings" responses as well as fixed
stub responses.
*/
package fakewiremock

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/mux"
)

// Response is a scripted response of the admin mappings endpoint.
type Response struct {
	Status int
	Body   string
}

// Status returns a response with the specified HTTP status code and an empty
// body.
func Status(code int) Response { return Response{Status: code} }

// Body returns an HTTP 200 response with the specified body.
func Body(body string) Response { return Response{Status: http.StatusOK, Body: body} }

// Mappings returns an HTTP 200 response listing n stub mappings.
func Mappings(n int) Response {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, fmt.Sprintf(`{"id":"%08d-0000-0000-0000-000000000000"}`, i))
	}
	return Body(fmt.Sprintf(`{"mappings":[%s],"meta":{"total":%d}}`,
		strings.Join(ids, ","), n))
}

// Server is a fake WireMock server. The scripted responses of the admin
// mappings endpoint are played back in order, with the last one repeating
// forever.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	responses []Response
	hits      int
	stubs     map[string]string
}

// New returns a new and already started fake WireMock server, playing back
// the specified admin mappings responses. Without any responses, the server
// reports a single mapping.
func New(responses ...Response) *Server {
	s := &Server{
		responses: responses,
		stubs:     map[string]string{},
	}
	if len(s.responses) == 0 {
		s.responses = []Response{Mappings(1)}
	}
	r := mux.NewRouter()
	r.HandleFunc("/__admin/mappings", s.mappings).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(s.stub)
	s.Server = httptest.NewServer(r)
	return s
}

// Stub makes the fake server respond to the specified path with the body.
func (s *Server) Stub(path string, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs["/"+strings.TrimPrefix(path, "/")] = body
}

// Script replaces the scripted admin mappings responses.
func (s *Server) Script(responses ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = responses
	s.hits = 0
}

// Hits returns the number of requests to the admin mappings endpoint so far.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

// Port returns the TCP port number the fake server listens on.
func (s *Server) Port() string {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	return port
}

func (s *Server) mappings(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	idx := s.hits
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.hits++
	resp := Response{Status: http.StatusServiceUnavailable}
	if idx >= 0 {
		resp = s.responses[idx]
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

func (s *Server) stub(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	body, ok := s.stubs[req.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, req)
		return
	}
	_, _ = w.Write([]byte(body))
}
