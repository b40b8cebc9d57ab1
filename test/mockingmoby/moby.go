// Copyright 2021 Harald Albrecht.
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

package mockingmoby

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/distribution/reference"
	"github.com/docker/go-connections/nat"
	"github.com/thediveo/mockwhale"
	"golang.org/x/exp/slices"
)

// firstHostPort is the first host port handed out to published container
// ports not explicitly mapped using PublishPort.
const firstHostPort = 49153

// MockingMoby is a mock Docker client implementing only the image and
// container service API methods needed to run a mocked WireMock container.
type MockingMoby struct {
	mux        sync.RWMutex
	daemonHost string
	images     map[string]struct{}         // locally available images, normalized.
	pulls      []string                    // images pulled, normalized.
	containers map[string]*MockedContainer // mocked containers by ID
	names      map[string]string           // maps names to IDs
	gone       map[string]chan struct{}    // closed when container gets removed.
	hostPorts  map[nat.Port]string         // explicitly published host ports.
	nextPort   int
	nextID     int
	stdout     string
	stderr     string
	closed     bool
}

// Ensure that all needed service API methods have been implemented.
var _ mockwhale.MobyAPIClient = (*MockingMoby)(nil)

// NewMockingMoby returns a new instance of a mock Docker client.
func NewMockingMoby() *MockingMoby {
	return &MockingMoby{
		daemonHost: "tcp://127.0.0.1:2375",
		images:     map[string]struct{}{},
		containers: map[string]*MockedContainer{},
		names:      map[string]string{},
		gone:       map[string]chan struct{}{},
		hostPorts:  map[nat.Port]string{},
		nextPort:   firstHostPort,
	}
}

// DaemonHost returns the host address used by the client; published ports of
// mocked containers are reachable on its host.
func (mm *MockingMoby) DaemonHost() string {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	return mm.daemonHost
}

// SetDaemonHost sets the (fake) host address used by the client.
func (mm *MockingMoby) SetDaemonHost(host string) {
	mm.mux.Lock()
	defer mm.mux.Unlock()
	mm.daemonHost = host
}

// Close closes the mock client, releasing its internal resources.
func (mm *MockingMoby) Close() error {
	mm.mux.Lock()
	defer mm.mux.Unlock()
	mm.closed = true
	return nil
}

// IsClosed returns true if the mock client has been closed.
func (mm *MockingMoby) IsClosed() bool {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	return mm.closed
}

// isCtxCancelled returns an error if the specified Context is done, either
// having been cancelled our reached its deadline. Otherwise, returns nil.
func isCtxCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// AddImage makes the specified image locally available, so it doesn't need
// to be pulled.
func (mm *MockingMoby) AddImage(image string) {
	mm.mux.Lock()
	defer mm.mux.Unlock()
	mm.images[normalize(image)] = struct{}{}
}

// Pulled returns the (normalized) references of the images pulled so far.
func (mm *MockingMoby) Pulled() []string {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	return slices.Clone(mm.pulls)
}

// PublishPort publishes the specified container port, such as "8080/tcp", on
// the specified host port when a container gets started. Point WireMock's
// port to a fake WireMock server's port in order to test readiness probing.
func (mm *MockingMoby) PublishPort(port string, hostPort string) {
	proto, p := nat.SplitProtoPort(port)
	mm.mux.Lock()
	defer mm.mux.Unlock()
	mm.hostPorts[nat.Port(p+"/"+proto)] = hostPort
}

// SetLogs sets the stdout and stderr output of all mocked containers.
func (mm *MockingMoby) SetLogs(stdout, stderr string) {
	mm.mux.Lock()
	defer mm.mux.Unlock()
	mm.stdout = stdout
	mm.stderr = stderr
}

// Container returns a copy of the mocked container identified either by ID
// or name. If not found, returns false.
func (mm *MockingMoby) Container(nameorid string) (MockedContainer, bool) {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	c, ok := mm.lookup(nameorid)
	if !ok {
		return MockedContainer{}, false
	}
	return c.clone(), true
}

// ContainerTotal returns the number of mocked containers.
func (mm *MockingMoby) ContainerTotal() int {
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	return len(mm.containers)
}

// lookup returns a mocked container identified either by ID or name. If not
// found, returns false. The caller must hold the lock.
func (mm *MockingMoby) lookup(nameorid string) (*MockedContainer, bool) {
	c, ok := mm.containers[nameorid]
	if !ok {
		if id, found := mm.names[nameorid]; found {
			c, ok = mm.containers[id]
		}
	}
	return c, ok
}

// hostPort returns the host port to publish the specified container port on.
// The caller must hold the lock.
func (mm *MockingMoby) hostPort(port nat.Port) string {
	if hp, ok := mm.hostPorts[port]; ok {
		return hp
	}
	hp := strconv.Itoa(mm.nextPort)
	mm.nextPort++
	return hp
}

// newID returns a new 64 hex digit container ID. The caller must hold the
// lock.
func (mm *MockingMoby) newID() string {
	mm.nextID++
	return fmt.Sprintf("%064x", mm.nextID)
}

// normalize returns the fully qualified form of an image reference.
func normalize(image string) string {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return image
	}
	return reference.TagNameOnly(named).String()
}
