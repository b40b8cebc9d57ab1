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
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// AdminMappingsPath is the path of WireMock's admin API endpoint listing the
// currently loaded stub mappings.
const AdminMappingsPath = "/__admin/mappings"

// emptyMappingsHint tells users how to get past a fatal empty mappings
// verdict in case they really want a WireMock without mappings.
const emptyMappingsHint = "if this is intended, ignore empty mappings using WithIgnoreEmptyMappings"

// MappingsProber judges the status payloads returned by WireMock's
// "/__admin/mappings" endpoint. Only the "mappings" array of the payload is
// looked at, everything else is ignored.
type MappingsProber struct {
	ignoreEmptyMappings bool
}

var _ Prober = (*MappingsProber)(nil)

// NewMappingsProber returns a new prober; when ignoreEmptyMappings is true,
// a payload without any mappings is not ready instead of fatal.
func NewMappingsProber(ignoreEmptyMappings bool) MappingsProber {
	return MappingsProber{ignoreEmptyMappings: ignoreEmptyMappings}
}

// IgnoresEmptyMappings returns true if empty mappings are not considered to
// be fatal.
func (p MappingsProber) IgnoresEmptyMappings() bool { return p.ignoreEmptyMappings }

// Judge the specified status payload body:
//
//   - bodies that aren't (complete) JSON are NotReady, as WireMock is still
//     starting up.
//   - more than zero mappings are Ready.
//   - zero mappings (including no or non-array "mappings") are Fatal, unless
//     ignoring empty mappings, then they are NotReady.
func (p MappingsProber) Judge(body string) Verdict {
	count, ok := countMappings(body)
	if !ok {
		return notReady("malformed status payload")
	}
	if count > 0 {
		return Verdict{Outcome: Ready}
	}
	if p.ignoreEmptyMappings {
		v := notReady("no mappings")
		v.Empty = true
		return v
	}
	return Verdict{
		Outcome: Fatal,
		Err: &FatalError{
			Err:  ErrEmptyMappings,
			Hint: emptyMappingsHint,
		},
	}
}

// countMappings returns the number of elements in the "mappings" array of
// the specified JSON document, and true if the document could be parsed. A
// missing, null, or non-array "mappings" field counts as zero mappings.
func countMappings(body string) (int, bool) {
	if !utf8.ValidString(body) {
		return 0, false
	}
	var doc any
	if err := sonic.ConfigStd.UnmarshalFromString(body, &doc); err != nil {
		return 0, false
	}
	status, ok := doc.(map[string]any)
	if !ok {
		return 0, true
	}
	mappings, ok := status["mappings"].([]any)
	if !ok {
		return 0, true
	}
	return len(mappings), true
}
