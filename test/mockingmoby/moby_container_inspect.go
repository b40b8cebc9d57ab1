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

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
)

// ContainerInspect returns details about a particular mocked container.
func (mm *MockingMoby) ContainerInspect(ctx context.Context, nameorid string) (types.ContainerJSON, error) {
	if err := enter(ctx, ContainerInspectPre); err != nil {
		return types.ContainerJSON{}, err
	}
	mm.mux.RLock()
	defer mm.mux.RUnlock()
	c, ok := mm.lookup(nameorid)
	if !ok {
		return types.ContainerJSON{}, errdefs.NotFound(fmt.Errorf("no such container %q", nameorid))
	}
	cc := c.clone()
	exposed := nat.PortSet{}
	for _, port := range cc.ExposedPorts {
		exposed[port] = struct{}{}
	}
	return types.ContainerJSON{
		ContainerJSONBase: &types.ContainerJSONBase{
			ID:    cc.ID,
			Name:  "/" + cc.Name,
			Image: cc.Image,
			State: &types.ContainerState{
				Status:  MockedStatus[cc.Status],
				Running: cc.Status == MockedRunning,
			},
			HostConfig: &container.HostConfig{
				PublishAllPorts: cc.PublishAll,
			},
		},
		Config: &container.Config{
			Image:        cc.Image,
			Cmd:          cc.Cmd,
			Labels:       cc.Labels,
			ExposedPorts: exposed,
		},
		NetworkSettings: &types.NetworkSettings{
			NetworkSettingsBase: types.NetworkSettingsBase{
				Ports: cc.Ports,
			},
		},
	}, nil
}
