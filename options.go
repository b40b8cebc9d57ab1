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
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/shlex"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/thediveo/mockwhale/readiness"
)

// Option represents options to New when creating WireMock containers.
type Option func(*WireMockContainer)

// WithImage uses the specified image instead of the official "latest" one.
// Images other than the official WireMock image need to be declared as
// compatible substitutes using WithImageName and
// ImageName.AsCompatibleSubstituteFor.
func WithImage(image string) Option {
	return func(c *WireMockContainer) {
		name, err := ParseImageName(image)
		if err != nil {
			c.fail(err)
			return
		}
		c.image = name
	}
}

// WithImageName uses the specified (already parsed) image.
func WithImageName(name ImageName) Option {
	return func(c *WireMockContainer) {
		c.image = name
	}
}

// WithTag uses the specified tag (WireMock version) of the current image.
func WithTag(tag string) Option {
	return func(c *WireMockContainer) {
		name, err := ParseImageName(c.image.Repository() + ":" + tag)
		if err != nil {
			c.fail(err)
			return
		}
		name.substituteFor = c.image.substituteFor
		c.image = name
	}
}

// AsCompatibleSubstitute declares the current image to be a compatible
// substitute for the official WireMock image.
func AsCompatibleSubstitute() Option {
	return func(c *WireMockContainer) {
		c.image = c.image.AsCompatibleSubstituteFor(OfficialImageName)
	}
}

// WithMapping adds a stub mapping with the specified name and JSON contents.
// Adding a mapping with the name of an existing mapping replaces the latter.
func WithMapping(name string, json string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("mapping", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.mappings[name] = literalSource(json)
	}
}

// WithMappingFile adds a stub mapping with the specified name, reading its
// JSON contents from the host file at path when starting the container.
func WithMappingFile(name string, path string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("mapping", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.mappings[name] = hostFileSource(path)
	}
}

// WithMappingFromFS adds a stub mapping with the specified name, reading its
// JSON contents from the specified file system, such as an embed.FS.
func WithMappingFromFS(name string, fsys fs.FS, path string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("mapping", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.mappings[name] = fsSource(fsys, path)
	}
}

// WithFile adds a file to be served by WireMock ("__files") under the
// specified name, reading its contents from the host file at path.
func WithFile(name string, path string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("served file", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.files[name] = hostFileSource(path)
	}
}

// WithFileFromFS adds a file to be served by WireMock under the specified
// name, reading its contents from the specified file system.
func WithFileFromFS(name string, fsys fs.FS, path string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("served file", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.files[name] = fsSource(fsys, path)
	}
}

// WithFileContents adds a file to be served by WireMock under the specified
// name with the specified contents.
func WithFileContents(name string, contents string) Option {
	return func(c *WireMockContainer) {
		name, err := containedName("served file", name)
		if err != nil {
			c.fail(err)
			return
		}
		c.files[name] = literalSource(contents)
	}
}

// containedName returns the cleaned name of a mapping or served file,
// rejecting names that would leave their directory inside the container.
func containedName(kind string, name string) (string, error) {
	clean := path.Clean(name)
	if name == "" || clean == "." || clean == ".." || path.IsAbs(clean) ||
		strings.HasPrefix(clean, "../") || strings.Contains(name, "\\") {
		return "", errors.Errorf("invalid %s name %q", kind, name)
	}
	return clean, nil
}

// WithRootDir copies the "mappings" and "__files" sub-directories of the
// specified host directory into the container.
func WithRootDir(dir string) Option {
	return func(c *WireMockContainer) {
		c.rootDirs = append(c.rootDirs, dir)
	}
}

// WithExtension adds an extension with the specified ID, class names, and JAR
// files. An empty id gets guessed from the JARs or class names. Adding an
// extension with the ID of an existing extension replaces the latter.
func WithExtension(id string, classNames []string, jars ...string) Option {
	return func(c *WireMockContainer) {
		c.extensions = append(c.extensions, Extension{
			ID:         id,
			ClassNames: classNames,
			JARs:       jars,
		})
	}
}

// WithExtensionDir adds an extension with the specified ID and class names,
// with all the JAR files found in the specified host directory and its
// sub-directories.
func WithExtensionDir(id string, classNames []string, dir string) Option {
	return func(c *WireMockContainer) {
		c.extensions = append(c.extensions, Extension{
			ID:         id,
			ClassNames: classNames,
			JARDirs:    []string{dir},
		})
	}
}

// WithExtensionClass adds an extension that is already part of the image,
// activating it by its class name.
func WithExtensionClass(id string, className string) Option {
	return WithExtension(id, []string{className})
}

// WithCLIArg adds command line arguments to be passed to WireMock. The
// argument string is split shell-style, so "--port 8443" results in two
// arguments, while quoted arguments keep their spaces.
func WithCLIArg(arg string) Option {
	return func(c *WireMockContainer) {
		args, err := shlex.Split(arg)
		if err != nil {
			c.fail(errors.Wrapf(err, "invalid WireMock CLI argument %q", arg))
			return
		}
		c.args = append(c.args, args...)
	}
}

// WithBanner shows the WireMock banner on startup; it is hidden by default.
func WithBanner() Option {
	return func(c *WireMockContainer) {
		c.banner = true
	}
}

// WithoutBanner hides the WireMock banner, unless "--verbose" was passed.
func WithoutBanner() Option {
	return func(c *WireMockContainer) {
		c.banner = false
	}
}

// WithIgnoreEmptyMappings allows the container to start without any stub
// mappings. Otherwise, a container reporting no mappings fails to start.
func WithIgnoreEmptyMappings() Option {
	return func(c *WireMockContainer) {
		c.ignoreEmptyMappings = true
	}
}

// WithExposedPorts exposes additional container ports, such as "8443" or
// "8443/tcp", besides WireMock's HTTP port.
func WithExposedPorts(ports ...string) Option {
	return func(c *WireMockContainer) {
		for _, port := range ports {
			proto, p := nat.SplitProtoPort(port)
			np, err := nat.NewPort(proto, p)
			if err != nil {
				c.fail(errors.Wrapf(err, "invalid port %q", port))
				return
			}
			c.exposedPorts = append(c.exposedPorts, np)
		}
	}
}

// WithStartupTimeout sets the maximum time to wait for the container to
// become ready; defaults to 60s.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *WireMockContainer) {
		if d > 0 {
			c.startupTimeout = d
		}
	}
}

// WithPollInterval sets the interval between readiness probes.
func WithPollInterval(d time.Duration) Option {
	return func(c *WireMockContainer) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithSettlePeriod sets for how long a container ignoring empty mappings has
// to continuously report no mappings before it is considered ready.
func WithSettlePeriod(d time.Duration) Option {
	return func(c *WireMockContainer) {
		if d > 0 {
			c.settlePeriod = d
		}
	}
}

// WithWaitStrategy adds a wait strategy to be run after WireMock reported its
// mappings.
func WithWaitStrategy(s readiness.Strategy) Option {
	return func(c *WireMockContainer) {
		if s != nil {
			c.waits = append(c.waits, s)
		}
	}
}

// WithHTTPClient sets the HTTP client used for readiness probing.
func WithHTTPClient(client readiness.HTTPDoer) Option {
	return func(c *WireMockContainer) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for lifecycle and readiness messages.
func WithLogger(log zerolog.Logger) Option {
	return func(c *WireMockContainer) {
		c.log = log
	}
}

// WithLogConsumer forwards the container's stdout and stderr output to the
// specified writer, such as LogLines or os.Stderr.
func WithLogConsumer(w io.Writer) Option {
	return func(c *WireMockContainer) {
		if w != nil {
			c.logConsumers = append(c.logConsumers, w)
		}
	}
}

// WithLabels adds labels to the container.
func WithLabels(labels map[string]string) Option {
	return func(c *WireMockContainer) {
		for k, v := range labels {
			c.labels[k] = v
		}
	}
}

// WithPlatform sets the platform of the image to use, in the form of
// "os/arch" or "os/arch/variant", such as "linux/arm64".
func WithPlatform(platform string) Option {
	return func(c *WireMockContainer) {
		fields := strings.Split(platform, "/")
		if len(fields) < 2 || len(fields) > 3 || fields[0] == "" || fields[1] == "" {
			c.fail(errors.Errorf("invalid platform %q, expected os/arch[/variant]", platform))
			return
		}
		p := &ocispec.Platform{OS: fields[0], Architecture: fields[1]}
		if len(fields) == 3 {
			p.Variant = fields[2]
		}
		c.platform = p
	}
}

// WithName sets the container name instead of a generated one.
func WithName(name string) Option {
	return func(c *WireMockContainer) {
		if name = strings.TrimPrefix(name, "/"); name != "" {
			c.name = name
		}
	}
}

// WithEngine uses the specified container engine client instead of
// connecting to the Docker engine as configured by the environment. The
// engine client is not closed on Terminate.
func WithEngine(moby MobyAPIClient) Option {
	return func(c *WireMockContainer) {
		c.engine = moby
	}
}
