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
	"strconv"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
)

// removalTimeout limits removing a container that failed to start.
const removalTimeout = 30 * time.Second

// ErrNotStarted is returned when asking a container for its endpoint or ports
// before it has been successfully started.
var ErrNotStarted = errors.New("WireMock container not started")

// Start creates and starts the WireMock container, pulling its image if
// necessary, and then waits for it to become ready. If the container fails to
// become ready, Start removes it again and returns the reason. In particular,
// a container without any stub mappings fails with an error matching
// readiness.ErrEmptyMappings, unless WithIgnoreEmptyMappings was specified.
func (c *WireMockContainer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != "" {
		return errors.Errorf("WireMock container %s already started", c.name)
	}
	cfg, err := c.Configure()
	if err != nil {
		return err
	}

	moby := c.engine
	if moby == nil {
		moby, err = newEngineClient()
		if err != nil {
			return err
		}
		c.ownsEngine = true
	}
	c.moby = moby

	if err := c.start(ctx, cfg); err != nil {
		c.log.Error().Err(err).Str("container", c.name).Msg("WireMock container failed to start")
		if rmerr := c.terminate(context.Background()); rmerr != nil {
			c.log.Warn().Err(rmerr).Str("container", c.name).
				Msg("cannot remove WireMock container that failed to start")
		}
		return err
	}
	c.log.Info().Str("container", c.name).Str("endpoint", c.endpoint()).
		Msg("WireMock container ready")
	return nil
}

// start carries out the individual steps of starting the container.
func (c *WireMockContainer) start(ctx context.Context, cfg *ContainerConfig) error {
	if err := c.ensureImage(ctx, cfg); err != nil {
		return err
	}

	exposed := nat.PortSet{}
	for _, port := range cfg.ExposedPorts {
		exposed[port] = struct{}{}
	}
	created, err := c.moby.ContainerCreate(ctx,
		&container.Config{
			Image:        cfg.Image,
			Cmd:          cfg.Cmd,
			ExposedPorts: exposed,
			Labels:       cfg.Labels,
		},
		&container.HostConfig{
			PublishAllPorts: true,
		},
		nil, cfg.Platform, cfg.Name)
	if err != nil {
		return errors.Wrapf(err, "cannot create WireMock container %s", cfg.Name)
	}
	c.id = created.ID
	for _, warning := range created.Warnings {
		c.log.Warn().Str("container", cfg.Name).Msg(warning)
	}

	if len(cfg.Files) > 0 {
		archive, err := tarball(cfg.Files)
		if err != nil {
			return err
		}
		if err := c.moby.CopyToContainer(ctx, c.id, "/", archive, types.CopyToContainerOptions{}); err != nil {
			return errors.Wrapf(err, "cannot copy files into WireMock container %s", cfg.Name)
		}
		c.log.Debug().Str("container", cfg.Name).Int("files", len(cfg.Files)).
			Msg("copied files into container")
	}

	if err := c.moby.ContainerStart(ctx, c.id, container.StartOptions{}); err != nil {
		return errors.Wrapf(err, "cannot start WireMock container %s", cfg.Name)
	}
	details, err := c.moby.ContainerInspect(ctx, c.id)
	if err != nil {
		return errors.Wrapf(err, "cannot inspect WireMock container %s", cfg.Name)
	}
	if details.NetworkSettings != nil {
		c.ports = details.NetworkSettings.Ports
	}
	c.host = daemonHostname(c.moby.DaemonHost())
	if _, err := c.mappedPort(Port); err != nil {
		return err
	}
	c.stopLogs = c.followLogs(c.moby, c.id)

	endpoint := c.endpoint()
	for _, strategy := range cfg.WaitingFor {
		if err := strategy.WaitUntilReady(ctx, endpoint); err != nil {
			return err
		}
	}
	return nil
}

// ensureImage pulls the image unless it is already locally available.
func (c *WireMockContainer) ensureImage(ctx context.Context, cfg *ContainerConfig) error {
	_, _, err := c.moby.ImageInspectWithRaw(ctx, cfg.Image)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return errors.Wrapf(err, "cannot inspect image %s", cfg.Image)
	}
	c.log.Info().Str("image", cfg.Image).Msg("pulling image")
	opts := types.ImagePullOptions{}
	if cfg.Platform != nil {
		opts.Platform = cfg.Platform.OS + "/" + cfg.Platform.Architecture
		if cfg.Platform.Variant != "" {
			opts.Platform += "/" + cfg.Platform.Variant
		}
	}
	progress, err := c.moby.ImagePull(ctx, c.image.Ref(), opts)
	if err != nil {
		return errors.Wrapf(err, "cannot pull image %s", cfg.Image)
	}
	defer progress.Close()
	if _, err := io.Copy(io.Discard, progress); err != nil {
		return errors.Wrapf(err, "cannot pull image %s", cfg.Image)
	}
	return nil
}

// Terminate removes the container, if started, and releases the engine
// client where owned. Terminating an already terminated container is a no-op.
func (c *WireMockContainer) Terminate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminate(ctx)
}

func (c *WireMockContainer) terminate(ctx context.Context) error {
	if c.stopLogs != nil {
		c.stopLogs()
		c.stopLogs = nil
	}
	var err error
	if c.id != "" && c.moby != nil {
		rmctx, cancel := context.WithTimeout(ctx, removalTimeout)
		defer cancel()
		err = c.moby.ContainerRemove(rmctx, c.id, container.RemoveOptions{
			RemoveVolumes: true,
			Force:         true,
		})
		if err != nil && errdefs.IsNotFound(err) {
			err = nil
		}
		if err != nil {
			err = errors.Wrapf(err, "cannot remove WireMock container %s", c.name)
		} else {
			c.log.Debug().Str("container", c.name).Msg("removed container")
		}
	}
	c.id = ""
	c.ports = nil
	if c.ownsEngine && c.moby != nil {
		_ = c.moby.Close()
		c.ownsEngine = false
	}
	c.moby = nil
	return err
}

// ID returns the container ID, or "" if not started.
func (c *WireMockContainer) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Host returns the host where the container's published ports are reachable.
func (c *WireMockContainer) Host() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.host
}

// Endpoint returns the base URL of the WireMock server, such as
// "http://localhost:32768", or "" if not started.
func (c *WireMockContainer) Endpoint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		return ""
	}
	return c.endpoint()
}

func (c *WireMockContainer) endpoint() string {
	port, err := c.mappedPort(Port)
	if err != nil {
		return ""
	}
	return "http://" + net.JoinHostPort(c.host, strconv.Itoa(port))
}

// URL returns the URL for the specified path on the WireMock server; a
// leading slash is optional.
func (c *WireMockContainer) URL(path string) string {
	endpoint := c.Endpoint()
	if endpoint == "" {
		return ""
	}
	return endpoint + "/" + strings.TrimPrefix(path, "/")
}

// RequestURI returns the parsed URL for the specified path on the WireMock
// server.
func (c *WireMockContainer) RequestURI(path string) (*url.URL, error) {
	u := c.URL(path)
	if u == "" {
		return nil, ErrNotStarted
	}
	return url.Parse(u)
}

// ServerPort returns the host port WireMock's HTTP port is published on.
func (c *WireMockContainer) ServerPort() (int, error) {
	return c.MappedPort(string(Port))
}

// MappedPort returns the host port the specified container port, such as
// "8443" or "8443/tcp", is published on.
func (c *WireMockContainer) MappedPort(port string) (int, error) {
	proto, p := nat.SplitProtoPort(port)
	np, err := nat.NewPort(proto, p)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid port %q", port)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		return 0, ErrNotStarted
	}
	return c.mappedPort(np)
}

func (c *WireMockContainer) mappedPort(port nat.Port) (int, error) {
	for _, binding := range c.ports[port] {
		if binding.HostPort == "" {
			continue
		}
		if ip := net.ParseIP(binding.HostIP); ip != nil && ip.To4() == nil {
			continue
		}
		hostPort, err := strconv.Atoi(binding.HostPort)
		if err != nil {
			return 0, errors.Wrapf(err, "invalid host port for %s", port)
		}
		return hostPort, nil
	}
	return 0, errors.Errorf("container port %s is not published", port)
}
