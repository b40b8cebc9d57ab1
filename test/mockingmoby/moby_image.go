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
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/errdefs"
)

// ImageInspectWithRaw returns only the ID and tag of a locally available
// image, or a not-found error otherwise.
func (mm *MockingMoby) ImageInspectWithRaw(ctx context.Context, image string) (types.ImageInspect, []byte, error) {
	if err := enter(ctx, ImageInspectPre); err != nil {
		return types.ImageInspect{}, nil, err
	}
	ref := normalize(image)
	mm.mux.RLock()
	_, ok := mm.images[ref]
	mm.mux.RUnlock()
	if !ok {
		return types.ImageInspect{}, nil, errdefs.NotFound(fmt.Errorf("No such image: %s", image))
	}
	return types.ImageInspect{
		ID:       "sha256:" + strings.Repeat("0", 64),
		RepoTags: []string{image},
	}, []byte("{}"), nil
}

// ImagePull "pulls" the specified image, making it locally available, and
// returns a short progress stream.
func (mm *MockingMoby) ImagePull(ctx context.Context, ref string, options types.ImagePullOptions) (io.ReadCloser, error) {
	if err := enter(ctx, ImagePullPre); err != nil {
		return nil, err
	}
	image := normalize(ref)
	mm.mux.Lock()
	mm.images[image] = struct{}{}
	mm.pulls = append(mm.pulls, image)
	mm.mux.Unlock()
	return io.NopCloser(strings.NewReader(
		fmt.Sprintf(`{"status":"Pulling from %s"}`+"\n"+`{"status":"Download complete"}`+"\n", image))), nil
}
