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


package mockingmoby

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ContainerCreate creates a new mocked container in "created" state from a
// locally available image.
func (mm *MockingMoby) ContainerCreate(
	ctx context.Context,
	config *container.Config,
	hostConfig *container.HostConfig,
	networkingConfig *network.NetworkingConfig,
	platform *ocispec.Platform,
	containerName string,
) (container.CreateResponse, error) {
	if err := enter(ctx, ContainerCreatePre); err != nil {
		return container.CreateResponse{}, err
	}
	if config == nil {
		return container.CreateResponse{}, errdefs.InvalidParameter(fmt.Errorf("config cannot be empty"))
	}
	mm.mux.Lock()
	defer mm.mux.Unlock()
	if _, ok := mm.images[normalize(config.Image)]; !ok {
		return container.CreateResponse{}, errdefs.NotFound(fmt.Errorf("No such image: %s", config.Image))
	}
	if _, ok := mm.names[containerName]; ok && containerName != "" {
		return container.CreateResponse{}, errdefs.Conflict(
			fmt.Errorf("The container name %q is already in use", "/"+containerName))
	}
	c := &MockedContainer{
		ID:           mm.newID(),
		Name:         containerName,
		Status:       MockedCreated,
		Image:        config.Image,
		Cmd:          slices.Clone(config.Cmd),
		Labels:       maps.Clone(config.Labels),
		ExposedPorts: maps.Keys(config.ExposedPorts),
		Ports:        nat.PortMap{},
		Files:        map[string][]byte{},
	}
	if c.Name == "" {
		c.Name = "mocking_" + c.ID[len(c.ID)-8:]
	}
	slices.Sort(c.ExposedPorts)
	if hostConfig != nil {
		c.PublishAll = hostConfig.PublishAllPorts
	}
	if platform != nil {
		c.Platform = platform.OS + "/" + platform.Architecture
		if platform.Variant != "" {
			c.Platform += "/" + platform.Variant
		}
	}
	mm.containers[c.ID] = c
	mm.names[c.Name] = c.ID
	mm.gone[c.ID] = make(chan struct{})
	return container.CreateResponse{ID: c.ID, Warnings: []string{}}, nil
}

// ContainerStart "starts" a mocked container, publishing all its exposed
// ports if requested on creation.
func (mm *MockingMoby) ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error {
	if err := enter(ctx, ContainerStartPre); err != nil {
		return err
	}
	mm.mux.Lock()
	defer mm.mux.Unlock()
	c, ok := mm.lookup(containerID)
	if !ok {
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	if c.Status == MockedRunning {
		return nil
	}
	c.Status = MockedRunning
	if c.PublishAll {
		for _, port := range c.ExposedPorts {
			hostPort := mm.hostPort(port)
			c.Ports[port] = []nat.PortBinding{
				{HostIP: "0.0.0.0", HostPort: hostPort},
				{HostIP: "::", HostPort: hostPort},
			}
		}
	}
	return nil
}
