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
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"github.com/thediveo/mockwhale/readiness"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Well-known locations inside the WireMock container.
const (
	MappingsDir   = "/home/wiremock/mappings/"
	FilesDir      = "/home/wiremock/__files/"
	ExtensionsDir = "/var/wiremock/extensions/"
)

// Port is the HTTP port WireMock listens on inside its container.
const Port = nat.Port("8080/tcp")

// ManagedLabel marks containers created by this package.
const ManagedLabel = "org.thediveo.mockwhale"

// ContainerFile is a file to be copied into the container before it starts.
type ContainerFile struct {
	Path    string // absolute path inside the container.
	Content []byte
	Mode    int64
}

// ContainerConfig is the container configuration derived from a
// WireMockContainer's options.
type ContainerConfig struct {
	Image        string
	Name         string
	Labels       map[string]string
	Platform     *ocispec.Platform
	ExposedPorts []nat.Port
	Files        []ContainerFile
	Cmd          []string
	WaitingFor   []readiness.Strategy
}

// Configure translates the options into the container configuration, reading
// all mapping, served, and JAR files from their sources.
func (c *WireMockContainer) Configure() (*ContainerConfig, error) {
	cfg := &ContainerConfig{
		Image:    c.image.String(),
		Name:     c.name,
		Labels:   map[string]string{ManagedLabel: "true"},
		Platform: c.platform,
	}
	for k, v := range c.labels {
		cfg.Labels[k] = v
	}

	cfg.ExposedPorts = []nat.Port{Port}
	for _, port := range c.exposedPorts {
		if !slices.Contains(cfg.ExposedPorts, port) {
			cfg.ExposedPorts = append(cfg.ExposedPorts, port)
		}
	}

	names := maps.Keys(c.mappings)
	slices.Sort(names)
	for _, name := range names {
		content, err := c.mappings[name].contents()
		if err != nil {
			return nil, errors.Wrapf(err, "mapping %q", name)
		}
		cfg.Files = append(cfg.Files, ContainerFile{
			Path:    MappingsDir + name + ".json",
			Content: content,
			Mode:    0644,
		})
	}
	names = maps.Keys(c.files)
	slices.Sort(names)
	for _, name := range names {
		content, err := c.files[name].contents()
		if err != nil {
			return nil, errors.Wrapf(err, "served file %q", name)
		}
		cfg.Files = append(cfg.Files, ContainerFile{
			Path:    FilesDir + name,
			Content: content,
			Mode:    0644,
		})
	}
	for _, dir := range c.rootDirs {
		files, err := rootDirFiles(dir)
		if err != nil {
			return nil, err
		}
		cfg.Files = append(cfg.Files, files...)
	}

	extensions, err := c.resolveExtensions()
	if err != nil {
		return nil, err
	}
	classNames := []string{}
	for _, ext := range extensions {
		classNames = append(classNames, ext.ClassNames...)
		for _, jar := range ext.JARs {
			content, err := os.ReadFile(jar)
			if err != nil {
				return nil, errors.Wrapf(err, "extension %q", ext.ID)
			}
			cfg.Files = append(cfg.Files, ContainerFile{
				Path:    ExtensionsDir + filepath.Base(jar),
				Content: content,
				Mode:    0644,
			})
		}
	}

	cfg.Cmd = slices.Clone(c.args)
	if !c.showsBanner() {
		cfg.Cmd = append(cfg.Cmd, "--disable-banner")
	}
	if len(classNames) > 0 {
		cfg.Cmd = append(cfg.Cmd, "--extensions", strings.Join(classNames, ","))
	}

	cfg.WaitingFor = append([]readiness.Strategy{
		readiness.ForMappings(
			readiness.NewMappingsProber(c.ignoreEmptyMappings),
			readiness.WithStartupTimeout(c.startupTimeout),
			readiness.WithPollInterval(c.pollInterval),
			readiness.WithSettlePeriod(c.settlePeriod),
			readiness.WithHTTPClient(c.httpClient),
			readiness.WithLogger(c.log)),
	}, c.waits...)
	return cfg, nil
}

// showsBanner returns true if the banner was explicitly asked for, or if
// WireMock is to be verbose anyway.
func (c *WireMockContainer) showsBanner() bool {
	return c.banner || slices.Contains(c.args, "--verbose")
}

// resolveExtensions returns the extensions sorted by their (guessed) IDs,
// where later extensions replace earlier ones with the same ID.
func (c *WireMockContainer) resolveExtensions() ([]Extension, error) {
	byID := map[string]Extension{}
	for _, ext := range c.extensions {
		resolved, err := ext.resolve()
		if err != nil {
			return nil, err
		}
		byID[resolved.ID] = resolved
	}
	ids := maps.Keys(byID)
	slices.Sort(ids)
	extensions := make([]Extension, 0, len(ids))
	for _, id := range ids {
		extensions = append(extensions, byID[id])
	}
	return extensions, nil
}

// rootDirFiles returns the regular files inside the "mappings" and "__files"
// sub-directories of the specified root directory; missing sub-directories
// are skipped.
func rootDirFiles(dir string) ([]ContainerFile, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot access root directory %q", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("root directory %q is not a directory", dir)
	}
	files := []ContainerFile{}
	for _, sub := range []struct {
		name string
		dest string
	}{
		{name: "mappings", dest: MappingsDir},
		{name: "__files", dest: FilesDir},
	} {
		fsys := os.DirFS(filepath.Join(dir, sub.name))
		err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				if name == "." && errors.Is(err, fs.ErrNotExist) {
					return fs.SkipDir
				}
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				return err
			}
			files = append(files, ContainerFile{
				Path:    path.Join(sub.dest, name),
				Content: content,
				Mode:    0644,
			})
			return nil
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cannot copy root directory %q", dir)
		}
	}
	return files, nil
}
