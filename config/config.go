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


/*
Package config describes WireMock containers in YAML, such as:

	image: wiremock/wiremock:3.3.1
	startupTimeout: 60s
	args: ["--verbose"]
	mappings:
	  - name: hello
	    file: ./hello.json
	files:
	  - name: response.xml
	    file: ./response.xml
	extensions:
	  - id: webhooks
	    classNames: [org.wiremock.webhooks.Webhooks]
	    jars: [./webhooks.jar]

Relative paths are relative to the directory of the YAML file.
*/
package config

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/thediveo/mockwhale"
	"gopkg.in/yaml.v3"
)

// Spec describes a WireMock container.
type Spec struct {
	Image                string            `yaml:"image"`
	CompatibleSubstitute bool              `yaml:"compatibleSubstitute"`
	Name                 string            `yaml:"name"`
	Platform             string            `yaml:"platform"`
	Labels               map[string]string `yaml:"labels"`
	IgnoreEmptyMappings  bool              `yaml:"ignoreEmptyMappings"`
	Banner               bool              `yaml:"banner"`
	StartupTimeout       time.Duration     `yaml:"startupTimeout" validate:"gte=0"`
	PollInterval         time.Duration     `yaml:"pollInterval" validate:"gte=0"`
	SettlePeriod         time.Duration     `yaml:"settlePeriod" validate:"gte=0"`
	Args                 []string          `yaml:"args" validate:"dive,required"`
	ExposedPorts         []string          `yaml:"exposedPorts" validate:"dive,required"`
	RootDir              string            `yaml:"rootDir"`
	Mappings             []Mapping         `yaml:"mappings" validate:"dive"`
	Files                []File            `yaml:"files" validate:"dive"`
	Extensions           []Extension       `yaml:"extensions" validate:"dive"`

	dir string // directory of the YAML file, if loaded from a file.
}

// Mapping is a stub mapping, either given inline as JSON or read from a file.
type Mapping struct {
	Name string `yaml:"name" validate:"required,excludesall=/\\"`
	JSON string `yaml:"json" validate:"required_without=File,excluded_with=File"`
	File string `yaml:"file" validate:"required_without=JSON"`
}

// File is a file served by WireMock.
type File struct {
	Name string `yaml:"name" validate:"required"`
	File string `yaml:"file" validate:"required"`
}

// Extension is a WireMock extension, with its JARs either listed explicitly
// or found in a directory.
type Extension struct {
	ID         string   `yaml:"id"`
	ClassNames []string `yaml:"classNames" validate:"dive,required"`
	JARs       []string `yaml:"jars" validate:"dive,required"`
	JARDir     string   `yaml:"jarDir" validate:"excluded_with=JARs"`
}

// Load reads and validates the YAML container description from the
// specified file.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read WireMock container description")
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid WireMock container description %s", path)
	}
	spec.dir = filepath.Dir(path)
	return spec, nil
}

// Parse decodes and validates a YAML container description. Unknown fields
// are rejected.
func Parse(data []byte) (*Spec, error) {
	spec := &Spec{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(spec); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "malformed YAML")
	}
	if err := validate(spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// Options returns the options for creating the described container. Relative
// paths are resolved against the directory of the loaded YAML file, or the
// current working directory otherwise.
func (s *Spec) Options() []mockwhale.Option {
	opts := []mockwhale.Option{}
	if s.Image != "" {
		opts = append(opts, mockwhale.WithImage(s.Image))
	}
	if s.CompatibleSubstitute {
		opts = append(opts, mockwhale.AsCompatibleSubstitute())
	}
	if s.Name != "" {
		opts = append(opts, mockwhale.WithName(s.Name))
	}
	if s.Platform != "" {
		opts = append(opts, mockwhale.WithPlatform(s.Platform))
	}
	if len(s.Labels) > 0 {
		opts = append(opts, mockwhale.WithLabels(s.Labels))
	}
	if s.IgnoreEmptyMappings {
		opts = append(opts, mockwhale.WithIgnoreEmptyMappings())
	}
	if s.Banner {
		opts = append(opts, mockwhale.WithBanner())
	}
	opts = append(opts,
		mockwhale.WithStartupTimeout(s.StartupTimeout),
		mockwhale.WithPollInterval(s.PollInterval),
		mockwhale.WithSettlePeriod(s.SettlePeriod))
	for _, arg := range s.Args {
		opts = append(opts, mockwhale.WithCLIArg(arg))
	}
	if len(s.ExposedPorts) > 0 {
		opts = append(opts, mockwhale.WithExposedPorts(s.ExposedPorts...))
	}
	if s.RootDir != "" {
		opts = append(opts, mockwhale.WithRootDir(s.path(s.RootDir)))
	}
	for _, m := range s.Mappings {
		if m.File != "" {
			opts = append(opts, mockwhale.WithMappingFile(m.Name, s.path(m.File)))
			continue
		}
		opts = append(opts, mockwhale.WithMapping(m.Name, m.JSON))
	}
	for _, f := range s.Files {
		opts = append(opts, mockwhale.WithFile(f.Name, s.path(f.File)))
	}
	for _, ext := range s.Extensions {
		if ext.JARDir != "" {
			opts = append(opts, mockwhale.WithExtensionDir(ext.ID, ext.ClassNames, s.path(ext.JARDir)))
			continue
		}
		jars := make([]string, 0, len(ext.JARs))
		for _, jar := range ext.JARs {
			jars = append(jars, s.path(jar))
		}
		opts = append(opts, mockwhale.WithExtension(ext.ID, ext.ClassNames, jars...))
	}
	return opts
}

func (s *Spec) path(p string) string {
	if filepath.IsAbs(p) || s.dir == "" {
		return p
	}
	return filepath.Join(s.dir, p)
}

var validate = newValidator()

// newValidator returns a function validating container descriptions,
// reporting fields by their YAML names.
func newValidator() func(*Spec) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return func(spec *Spec) error {
		err := v.Struct(spec)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errors.Wrap(err, "validation failed")
		}
		msgs := make([]string, 0, len(verrs))
		for _, verr := range verrs {
			field := verr.Namespace()
			if _, rest, ok := strings.Cut(field, "."); ok {
				field = rest
			}
			msgs = append(msgs, field+" fails '"+verr.Tag()+"'")
		}
		return errors.Errorf("invalid container description: %s", strings.Join(msgs, "; "))
	}
}
