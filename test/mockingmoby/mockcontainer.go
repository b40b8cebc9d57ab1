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
	"github.com/docker/go-connections/nat"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// MockedContainerStatus is a compressed, only-essentials, no-bulls version of
// Docker's types.ContainerStatus.
type MockedContainerStatus int

// The available states of a mocked container.
const (
	MockedCreated MockedContainerStatus = iota
	MockedRunning
	MockedExited
)

// MockedStatus maps the states of a mocked container to Docker's container
// status strings that is better suited for code checks (no chatty additions and
// content variations).
var MockedStatus = map[MockedContainerStatus]string{
	MockedCreated: "created",
	MockedRunning: "running",
	MockedExited:  "exited",
}

// MockedContainer is our very, very limited knowledge about a mocked container;
// it just stores the minimum of information we need in mocking our own unit
// tests.
type MockedContainer struct {
	ID           string                // unique identifier of container
	Name         string                // name of container without any prefixing "/"
	Status       MockedContainerStatus // container status (without any thrills)
	Image        string                // image reference as passed on creation
	Platform     string                // requested platform, if any
	Cmd          []string              // command arguments
	Labels       map[string]string     // container labels
	ExposedPorts []nat.Port            // exposed container ports, sorted
	PublishAll   bool                  // publish all exposed ports on start
	Ports        nat.PortMap           // published ports once started
	Files        map[string][]byte     // files copied into the container, by absolute path
}

// clone returns a deep copy, so that tests cannot accidentally modify the
// mocked engine's state.
func (c *MockedContainer) clone() MockedContainer {
	cc := *c
	cc.Cmd = slices.Clone(c.Cmd)
	cc.Labels = maps.Clone(c.Labels)
	cc.ExposedPorts = slices.Clone(c.ExposedPorts)
	cc.Ports = nat.PortMap{}
	for port, bindings := range c.Ports {
		cc.Ports[port] = slices.Clone(bindings)
	}
	cc.Files = maps.Clone(c.Files)
	return cc
}

// FilePaths returns the sorted paths of the files copied into the container.
func (c MockedContainer) FilePaths() []string {
	paths := maps.Keys(c.Files)
	slices.Sort(paths)
	return paths
}
