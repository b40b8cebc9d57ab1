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

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
)

// ContainerLogs returns the configured stdout and stderr output of a mocked
// container, multiplexed as for containers without a TTY. When following, the
// stream ends only after the container has been removed or the context is
// done.
func (mm *MockingMoby) ContainerLogs(ctx context.Context, container string, options container.LogsOptions) (io.ReadCloser, error) {
	if err := enter(ctx, ContainerLogsPre); err != nil {
		return nil, err
	}
	mm.mux.RLock()
	c, ok := mm.lookup(container)
	var gone chan struct{}
	if ok {
		gone = mm.gone[c.ID]
	}
	stdout, stderr := mm.stdout, mm.stderr
	mm.mux.RUnlock()
	if !ok {
		return nil, errdefs.NotFound(fmt.Errorf("No such container: %s", container))
	}
	pr, pw := io.Pipe()
	go func() {
		if options.ShowStdout && stdout != "" {
			_, _ = stdcopy.NewStdWriter(pw, stdcopy.Stdout).Write([]byte(stdout))
		}
		if options.ShowStderr && stderr != "" {
			_, _ = stdcopy.NewStdWriter(pw, stdcopy.Stderr).Write([]byte(stderr))
		}
		if options.Follow {
			select {
			case <-ctx.Done():
			case <-gone:
			}
		}
		_ = pw.Close()
	}()
	return pr, nil
}
