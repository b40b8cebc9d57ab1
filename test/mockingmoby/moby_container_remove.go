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
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// ContainerRemove removes a mocked container; running containers are only
// removed when forced.
func (mm *MockingMoby) ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error {
	if err := enter(ctx, ContainerRemovePre); err != nil {
		return err
	}
	mm.mux.Lock()
	defer mm.mux.Unlock()
	c, ok := mm.lookup(containerID)
	if !ok {
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	if c.Status == MockedRunning && !options.Force {
		return errdefs.Conflict(fmt.Errorf("cannot remove running container %s, stop it first or force removal", c.ID))
	}
	delete(mm.containers, c.ID)
	delete(mm.names, c.Name)
	close(mm.gone[c.ID])
	delete(mm.gone, c.ID)
	return nil
}

// StopContainer stops a mocked container, but does not remove it yet.
func (mm *MockingMoby) StopContainer(nameorid string) {
	mm.mux.Lock()
	defer mm.mux.Unlock()
	if c, ok := mm.lookup(nameorid); ok && c.Status == MockedRunning {
		c.Status = MockedExited
		c.Ports = nat.PortMap{}
	}
}
