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

package mockwhale

import (
	"context"
	"io"
	"net"
	"net/url"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
)

// MobyAPIClient is the subset of the Docker client API needed to run WireMock
// containers. For production, Docker's client.Client is a compatible
// implementation, for unit testing our very own mockingmoby.MockingMoby.
type MobyAPIClient interface {
	ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error)
	ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options types.CopyToContainerOptions) error
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerInspect(ctx context.Context, containerID string) (types.ContainerJSON, error)
	ContainerLogs(ctx context.Context, container string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	DaemonHost() string
	Close() error
}

var _ MobyAPIClient = (*client.Client)(nil)

// newEngineClient connects to the Docker engine as configured by the usual
// DOCKER_HOST and related environment variables.
func newEngineClient() (MobyAPIClient, error) {
	moby, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.Wrap(err, "cannot connect to Docker engine")
	}
	return moby, nil
}

// daemonHostname returns the host name where published container ports can
// be reached, given the engine's API address. Local engines publish on
// "localhost".
func daemonHostname(daemonHost string) string {
	u, err := url.Parse(daemonHost)
	if err != nil {
		return "localhost"
	}
	switch u.Scheme {
	case "tcp", "http", "https":
		host := u.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		if host != "" {
			return host
		}
	}
	return "localhost"
}
