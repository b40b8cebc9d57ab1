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
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"
	"github.com/thediveo/once"
)

// followLogs forwards the container's stdout and stderr to the log consumers
// until the returned stop function gets called; stop can safely be called
// multiple times.
func (c *WireMockContainer) followLogs(moby MobyAPIClient, id string) func() {
	if len(c.logConsumers) == 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	logs, err := moby.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		cancel()
		c.log.Warn().Err(err).Str("container", id).Msg("cannot follow container logs")
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer logs.Close()
		w := io.MultiWriter(c.logConsumers...)
		if _, err := stdcopy.StdCopy(w, w, logs); err != nil && ctx.Err() == nil {
			c.log.Debug().Err(err).Str("container", id).Msg("container logs ended")
		}
	}()
	return once.Once(func() {
		cancel()
		<-done
	}).Do
}

// LogLines returns a writer that logs each line written to it at info level,
// such as the output of a WireMock container when passed to WithLogConsumer.
func LogLines(log zerolog.Logger) io.Writer {
	return &lineLogger{log: log}
}

type lineLogger struct {
	mu  sync.Mutex
	buf []byte
	log zerolog.Logger
}

func (l *lineLogger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = append(l.buf, p...)
	for {
		idx := bytes.IndexByte(l.buf, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimRight(l.buf[:idx], "\r")
		if len(line) > 0 {
			l.log.Info().Msg(string(line))
		}
		l.buf = l.buf[idx+1:]
	}
	return len(p), nil
}
