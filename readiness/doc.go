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
Package readiness decides when a freshly started WireMock container is ready
to serve its stub mappings.

A [MappingsProber] judges a single status payload from WireMock's admin API
endpoint "/__admin/mappings" and returns a [Verdict] with one of three
outcomes: [NotReady] (keep polling), [Ready] (done), or [Fatal] (give up
immediately). The prober is a pure function of the payload and its
ignore-empty-mappings setting, so it can be unit tested without any container.

An [HTTPStrategy] is the polling loop around a prober: it repeatedly fetches
the status endpoint, treating transport errors and unexpected HTTP status
codes as not ready yet. A fatal verdict stops the loop at once and its
diagnostic becomes the error returned to the caller, instead of being masked
by a later timeout.

# Empty Mappings

A WireMock container that comes up without any stub mappings usually means
that the mappings never made it into the container. Unless told to ignore
empty mappings, the prober thus reports such a container as fatally broken
with an error matching [ErrEmptyMappings].

When ignoring empty mappings, an empty mappings list is never "ready" in
itself. Instead, the HTTPStrategy accepts a server that has been consistently
reporting valid but empty mappings for its settle period (see
[WithSettlePeriod]) and then stops waiting without an error.
*/
package readiness
