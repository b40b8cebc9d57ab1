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
Package mockwhale runs throw-away [WireMock] containers for integration tests,
using the official "wiremock/wiremock" standalone image. Stub mappings, files
to be served, WireMock extensions, and command line arguments are configured
using functional options and get copied into the container before it starts.

	wm, err := mockwhale.New(
	    mockwhale.WithMapping("hello", `{
	        "request": {"method": "GET", "url": "/hello"},
	        "response": {"status": 200, "body": "Hello, world!"}
	    }`))
	if err != nil {
	    panic(err)
	}
	if err := wm.Start(ctx); err != nil {
	    panic(err)
	}
	defer wm.Terminate(context.Background())

	resp, err := http.Get(wm.URL("/hello"))

# Readiness

Start returns only after WireMock reported its stub mappings on its
"/__admin/mappings" admin endpoint, as decided by a
[github.com/thediveo/mockwhale/readiness.MappingsProber]. A container
reporting no mappings at all is considered to be broken and Start fails
immediately with an error matching
[github.com/thediveo/mockwhale/readiness.ErrEmptyMappings], instead of
sitting out the startup timeout. Use [WithIgnoreEmptyMappings] for containers
that intentionally start without any mappings; these are then considered
ready after reporting no mappings for a short settle period.

# Container Engine

Unless an engine client is passed using [WithEngine], Start connects to the
Docker engine as configured by the DOCKER_HOST and related environment
variables. The images are pulled only when not available locally.

[WireMock]: https://wiremock.org
*/
package mockwhale
