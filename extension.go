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
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Extension describes a WireMock extension (plugin): optional extension class
// names to be activated, and the JAR files to be copied into the container's
// extensions directory. WireMock 3 automatically loads extensions from their
// JARs, so class names might be empty.
type Extension struct {
	ID         string   // unique extension identifier; guessed if empty.
	ClassNames []string // fully qualified extension class names.
	JARs       []string // host paths of JAR files.
	JARDirs    []string // host directories searched recursively for *.jar.
}

// resolve returns a copy of this extension with all JARs in its JAR
// directories added and its ID guessed, if necessary.
func (e Extension) resolve() (Extension, error) {
	resolved := Extension{
		ID:         e.ID,
		ClassNames: slices.Clone(e.ClassNames),
		JARs:       slices.Clone(e.JARs),
	}
	for _, dir := range e.JARDirs {
		jars, err := findJARs(dir)
		if err != nil {
			return Extension{}, err
		}
		resolved.JARs = append(resolved.JARs, jars...)
	}
	if resolved.ID == "" {
		resolved.ID = guessPluginID(resolved.ClassNames, resolved.JARs)
	}
	return resolved, nil
}

// findJARs returns the paths of all "*.jar" files somewhere below dir, in
// lexical order.
func findJARs(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot access extension JAR directory %q", dir)
	}
	if !info.IsDir() {
		return nil, errors.Errorf("extension JAR directory %q is not a directory", dir)
	}
	jars := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() && strings.EqualFold(filepath.Ext(path), ".jar") {
			jars = append(jars, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot search extension JAR directory %q", dir)
	}
	return jars, nil
}

// guessPluginID guesses an extension ID from the base name of its first JAR
// file, otherwise from the simple name of its first class name, and finally
// falls back to a random ID.
func guessPluginID(classNames []string, jars []string) string {
	if len(jars) > 0 {
		base := filepath.Base(jars[0])
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	if len(classNames) > 0 && len(classNames[0]) > 1 {
		className := classNames[0]
		return className[strings.LastIndex(className, ".")+1:]
	}
	return "plugin_" + uuid.NewString()
}
