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


package mockingmoby

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/errdefs"
)

// CopyToContainer unpacks the specified tar archive into the mocked
// container's files, relative to dstPath.
func (mm *MockingMoby) CopyToContainer(ctx context.Context, containerID, dstPath string, content io.Reader, options types.CopyToContainerOptions) error {
	if err := enter(ctx, CopyToContainerPre); err != nil {
		return err
	}
	files := map[string][]byte{}
	tr := tar.NewReader(content)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errdefs.InvalidParameter(fmt.Errorf("invalid tar archive: %w", err))
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		b, err := io.ReadAll(tr)
		if err != nil {
			return errdefs.InvalidParameter(fmt.Errorf("invalid tar archive: %w", err))
		}
		files[path.Join("/", dstPath, hdr.Name)] = b
	}
	mm.mux.Lock()
	defer mm.mux.Unlock()
	c, ok := mm.lookup(containerID)
	if !ok {
		return errdefs.NotFound(fmt.Errorf("No such container: %s", containerID))
	}
	for p, b := range files {
		c.Files[p] = b
	}
	return nil
}
