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
Package matcher provides Gomega matchers for checking the files and command
line arguments of WireMock container configurations as well as of mocked
containers.
*/
package matcher

import (
	"errors"
	"fmt"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/gcustom"
	"github.com/onsi/gomega/matchers"
	"github.com/onsi/gomega/types"
	"github.com/thediveo/mockwhale"
	"github.com/thediveo/mockwhale/test/mockingmoby"
)

// HaveFile succeeds if actual is a mockwhale.ContainerConfig (or a pointer to
// it) or a mockingmoby.MockedContainer having a file at the specified path
// with contents matching expected. If expected isn't a matcher, the contents
// must equal it as a string.
func HaveFile(path string, expected any) types.GomegaMatcher {
	content, ok := expected.(types.GomegaMatcher)
	if !ok {
		content = &matchers.EqualMatcher{Expected: fmt.Sprint(expected)}
	}
	return gcustom.MakeMatcher(func(actual any) (bool, error) {
		files, err := filesOf(actual)
		if err != nil {
			return false, err
		}
		b, ok := files[path]
		if !ok {
			return false, nil
		}
		return content.Match(string(b))
	}).WithTemplate("Expected:\n{{.FormattedActual}}\n{{.To}} have file {{.Data}}", path)
}

// HaveArgs succeeds if actual is a mockwhale.ContainerConfig (or a pointer to
// it) or a mockingmoby.MockedContainer whose command contains the specified
// arguments in this order and next to each other.
func HaveArgs(args ...string) types.GomegaMatcher {
	return gcustom.MakeMatcher(func(actual any) (bool, error) {
		cmd, err := cmdOf(actual)
		if err != nil {
			return false, err
		}
	nextstart:
		for start := 0; start+len(args) <= len(cmd); start++ {
			for idx, arg := range args {
				if cmd[start+idx] != arg {
					continue nextstart
				}
			}
			return true, nil
		}
		return false, nil
	}).WithTemplate("Expected:\n{{.FormattedActual}}\n{{.To}} have arguments {{format .Data 1}}", args)
}

func filesOf(actual any) (map[string][]byte, error) {
	switch actual := actual.(type) {
	case mockwhale.ContainerConfig:
		return configFiles(&actual), nil
	case *mockwhale.ContainerConfig:
		if actual == nil {
			break
		}
		return configFiles(actual), nil
	case mockingmoby.MockedContainer:
		return actual.Files, nil
	}
	return nil, errors.New(format.Message(actual, "to be a container configuration or mocked container"))
}

func configFiles(cfg *mockwhale.ContainerConfig) map[string][]byte {
	files := map[string][]byte{}
	for _, f := range cfg.Files {
		files[f.Path] = f.Content
	}
	return files
}

func cmdOf(actual any) ([]string, error) {
	switch actual := actual.(type) {
	case mockwhale.ContainerConfig:
		return actual.Cmd, nil
	case *mockwhale.ContainerConfig:
		if actual == nil {
			break
		}
		return actual.Cmd, nil
	case mockingmoby.MockedContainer:
		return actual.Cmd, nil
	}
	return nil, errors.New(format.Message(actual, "to be a container configuration or mocked container"))
}
