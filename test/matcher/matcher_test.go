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


package matcher

import (
	"github.com/thediveo/mockwhale"
	"github.com/thediveo/mockwhale/test/mockingmoby"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("container matchers", func() {

	cfg := mockwhale.ContainerConfig{
		Files: []mockwhale.ContainerFile{
			{Path: "/home/wiremock/mappings/hello.json", Content: []byte(`{"foo":"bar"}`)},
		},
		Cmd: []string{"--verbose", "--extensions", "a,b", "--disable-banner"},
	}

	It("matches files", func() {
		Expect(cfg).To(HaveFile("/home/wiremock/mappings/hello.json", `{"foo":"bar"}`))
		Expect(&cfg).To(HaveFile("/home/wiremock/mappings/hello.json", ContainSubstring("foo")))
		Expect(cfg).NotTo(HaveFile("/home/wiremock/mappings/hello.json", "baz"))
		Expect(cfg).NotTo(HaveFile("/home/wiremock/mappings/other.json", ContainSubstring("foo")))

		cntr := mockingmoby.MockedContainer{
			Files: map[string][]byte{"/var/wiremock/extensions/ext.jar": []byte("PK")},
		}
		Expect(cntr).To(HaveFile("/var/wiremock/extensions/ext.jar", "PK"))
	})

	It("matches argument sequences", func() {
		Expect(cfg).To(HaveArgs("--extensions", "a,b"))
		Expect(&cfg).To(HaveArgs("--verbose"))
		Expect(cfg).To(HaveArgs())
		Expect(cfg).NotTo(HaveArgs("--verbose", "a,b"))
		Expect(cfg).NotTo(HaveArgs("--disable-banner", "--foo"))
		Expect(mockingmoby.MockedContainer{Cmd: []string{"--port", "8080"}}).To(HaveArgs("--port", "8080"))
	})

	It("rejects unexpected actual values", func() {
		Expect(HaveFile("/foo", "bar").Match("foo")).Error().To(HaveOccurred())
		Expect(HaveArgs("--foo").Match(42)).Error().To(HaveOccurred())
		Expect(HaveArgs("--foo").Match((*mockwhale.ContainerConfig)(nil))).Error().To(HaveOccurred())
	})

})
