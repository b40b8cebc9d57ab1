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

package readiness

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyMappings is matched by the fatal error for containers that
	// started without any stub mappings.
	ErrEmptyMappings = errors.New("mappings are empty")
	// ErrTimeout is matched by errors of containers that did not become
	// ready within their startup timeout.
	ErrTimeout = errors.New("timed out waiting for readiness")
)

// FatalError reports a container that can never become ready.
type FatalError struct {
	Endpoint string // probed endpoint URL.
	Err      error  // underlying cause.
	Hint     string // optional hint how to fix the situation.
}

func (e *FatalError) Error() string {
	msg := "WireMock container initialized, but " + e.Err.Error()
	if e.Endpoint != "" {
		msg = fmt.Sprintf("WireMock container at %s initialized, but %s", e.Endpoint, e.Err)
	}
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *FatalError) Unwrap() error { return e.Err }

// TimeoutError reports a container that did not become ready in time.
type TimeoutError struct {
	Endpoint string        // probed endpoint URL.
	Timeout  time.Duration // startup timeout that elapsed.
	Attempts int           // number of probe attempts made.
	Last     string        // last reason for not being ready.
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s not ready after %s and %d attempts, last: %s",
		ErrTimeout, e.Endpoint, e.Timeout, e.Attempts, e.Last)
}

// Is reports ErrTimeout as matching.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
