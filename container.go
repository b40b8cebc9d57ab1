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
	"io"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/oklog/ulid/v2"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
	"github.com/thediveo/mockwhale/readiness"
)

// ContainerNamePrefix prefixes the generated names of WireMock containers.
const ContainerNamePrefix = "mockwhale-"

// WireMockContainer describes a WireMock container to be started, and after
// Start also the running container itself.
//
// A WireMockContainer is not safe for concurrent configuration, but its
// endpoint-related methods are safe to use after Start returned.
type WireMockContainer struct {
	image               ImageName
	mappings            map[string]source // by mapping name.
	files               map[string]source // by served file name.
	rootDirs            []string
	extensions          []Extension
	args                []string
	banner              bool
	ignoreEmptyMappings bool
	exposedPorts        []nat.Port
	startupTimeout      time.Duration
	pollInterval        time.Duration
	settlePeriod        time.Duration
	waits               []readiness.Strategy
	httpClient          readiness.HTTPDoer
	log                 zerolog.Logger
	logConsumers        []io.Writer
	labels              map[string]string
	platform            *ocispec.Platform
	name                string
	engine              MobyAPIClient // injected engine client, if any.
	err                 error         // first option error.

	mu         sync.Mutex
	moby       MobyAPIClient // engine client in use after Start.
	ownsEngine bool          // moby needs to be closed on Terminate.
	id         string
	host       string
	ports      nat.PortMap
	stopLogs   func()
}

// New returns a new WireMockContainer configured by the specified options,
// using the official WireMock image in its "latest" version unless told
// otherwise. New reports the first invalid option.
func New(opts ...Option) (*WireMockContainer, error) {
	c := &WireMockContainer{
		image:          MustParseImageName(DefaultImage),
		mappings:       map[string]source{},
		files:          map[string]source{},
		startupTimeout: readiness.DefaultStartupTimeout,
		pollInterval:   readiness.DefaultPollInterval,
		settlePeriod:   readiness.DefaultSettlePeriod,
		log:            zerolog.Nop(),
		labels:         map[string]string{},
		name:           ContainerNamePrefix + strings.ToLower(ulid.Make().String()),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	if err := c.image.verify(); err != nil {
		return nil, err
	}
	return c, nil
}

// fail remembers the first option error.
func (c *WireMockContainer) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// Image returns the image the container is (to be) created from.
func (c *WireMockContainer) Image() ImageName { return c.image }

// Name returns the container name.
func (c *WireMockContainer) Name() string { return c.name }

// IgnoresEmptyMappings returns true if the container is allowed to start
// without any stub mappings.
func (c *WireMockContainer) IgnoresEmptyMappings() bool { return c.ignoreEmptyMappings }
