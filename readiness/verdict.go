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

import "fmt"

// Outcome of a single probe attempt.
type Outcome byte

// The tri-state outcomes of probing a container for readiness.
const (
	NotReady Outcome = iota // not yet ready, retry later.
	Ready                   // ready; stop polling.
	Fatal                   // broken beyond repair; stop polling and fail.
)

// String returns a textual representation of a probe outcome.
func (o Outcome) String() string {
	switch o {
	case NotReady:
		return "not ready"
	case Ready:
		return "ready"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("Outcome(%d)", byte(o))
}

// Verdict is the result of judging a single probe attempt.
type Verdict struct {
	Outcome Outcome
	// Err carries the diagnostic of a Fatal outcome; it is nil otherwise.
	Err error
	// Reason optionally tells why an attempt was NotReady.
	Reason string
	// Empty is set when the status payload was well-formed but listed no
	// mappings at all.
	Empty bool
}

// Prober judges the body of a status endpoint response.
type Prober interface {
	Judge(body string) Verdict
}

func notReady(format string, args ...any) Verdict {
	return Verdict{Outcome: NotReady, Reason: fmt.Sprintf(format, args...)}
}
