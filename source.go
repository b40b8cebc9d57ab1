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

	"github.com/pkg/errors"
)

// source lazily provides the contents of a file to be copied into the
// container; it gets read only when configuring the container.
type source struct {
	origin string // for diagnostics only.
	read   func() ([]byte, error)
}

func (s source) contents() ([]byte, error) {
	b, err := s.read()
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %s", s.origin)
	}
	return b, nil
}

func literalSource(contents string) source {
	return source{
		origin: "literal contents",
		read:   func() ([]byte, error) { return []byte(contents), nil },
	}
}

func hostFileSource(path string) source {
	return source{
		origin: "host file " + path,
		read:   func() ([]byte, error) { return os.ReadFile(path) },
	}
}

func fsSource(fsys fs.FS, name string) source {
	return source{
		origin: "embedded file " + name,
		read:   func() ([]byte, error) { return fs.ReadFile(fsys, name) },
	}
}
