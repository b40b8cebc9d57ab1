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


package mockwhale_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/onsi/gomega/gbytes"
	"github.com/rs/zerolog"
	"github.com/thediveo/mockwhale"
	"github.com/thediveo/mockwhale/readiness"
	"github.com/thediveo/mockwhale/test/fakewiremock"
	"github.com/thediveo/mockwhale/test/mockingmoby"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/mockwhale/test/matcher"
	. "github.com/thediveo/success"
)

// stickyMoby is an engine that refuses to remove containers.
type stickyMoby struct {
	*mockingmoby.MockingMoby
}

func (m stickyMoby) ContainerRemove(context.Context, string, container.RemoveOptions) error {
	return errors.New("container is sticky")
}

var _ = Describe("WireMock container lifecycle", func() {

	var mm *mockingmoby.MockingMoby
	var srv *fakewiremock.Server
	var client *http.Client

	BeforeEach(func() {
		goodfds := Filedescriptors()
		goodgos := Goroutines()
		client = &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
		DeferCleanup(func() {
			client.CloseIdleConnections()
			Eventually(Goroutines).ShouldNot(HaveLeaked(goodgos))
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})

		mm = mockingmoby.NewMockingMoby()
		srv = fakewiremock.New()
		DeferCleanup(srv.Close)
		mm.PublishPort(string(mockwhale.Port), srv.Port())
	})

	newWireMock := func(opts ...mockwhale.Option) *mockwhale.WireMockContainer {
		GinkgoHelper()
		return Successful(mockwhale.New(append([]mockwhale.Option{
			mockwhale.WithEngine(mm),
			mockwhale.WithHTTPClient(client),
			mockwhale.WithPollInterval(10 * time.Millisecond),
			mockwhale.WithStartupTimeout(5 * time.Second),
			mockwhale.WithLogger(zerolog.New(GinkgoWriter)),
		}, opts...)...))
	}

	It("isn't reachable before being started", func() {
		wm := newWireMock()
		Expect(wm.ID()).To(BeEmpty())
		Expect(wm.Endpoint()).To(BeEmpty())
		Expect(wm.URL("/hello")).To(BeEmpty())
		Expect(wm.RequestURI("/hello")).Error().To(MatchError(mockwhale.ErrNotStarted))
		Expect(wm.ServerPort()).Error().To(MatchError(mockwhale.ErrNotStarted))
		Expect(wm.MappedPort("foo")).Error().To(MatchError(ContainSubstring("invalid port")))
		Expect(wm.Terminate(context.Background())).To(Succeed())
	})

	It("pulls, provisions, starts, and terminates a container", func(ctx context.Context) {
		wm := newWireMock(
			mockwhale.WithMapping("hello", helloMapping),
			mockwhale.WithExposedPorts("8443"),
			mockwhale.WithLabels(map[string]string{"foo": "bar"}),
			mockwhale.WithPlatform("linux/amd64"))
		Expect(wm.Start(ctx)).To(Succeed())
		defer func() { _ = wm.Terminate(context.Background()) }()

		By("pulling the image as it was missing")
		Expect(mm.Pulled()).To(ConsistOf("docker.io/wiremock/wiremock:latest"))

		By("creating the container as configured")
		Expect(wm.ID()).NotTo(BeEmpty())
		cntr, ok := mm.Container(wm.Name())
		Expect(ok).To(BeTrue())
		Expect(cntr.ID).To(Equal(wm.ID()))
		Expect(cntr.Status).To(Equal(mockingmoby.MockedRunning))
		Expect(cntr.Image).To(Equal(mockwhale.DefaultImage))
		Expect(cntr.Platform).To(Equal("linux/amd64"))
		Expect(cntr.PublishAll).To(BeTrue())
		Expect(cntr.Labels).To(HaveKeyWithValue("foo", "bar"))
		Expect(cntr.Labels).To(HaveKeyWithValue(mockwhale.ManagedLabel, "true"))
		Expect(cntr).To(HaveArgs("--disable-banner"))
		Expect(cntr).To(HaveFile("/home/wiremock/mappings/hello.json", helloMapping))

		By("waiting for the mappings to become available")
		Expect(srv.Hits()).To(BeNumerically(">=", 1))

		By("resolving the published ports")
		Expect(wm.Host()).To(Equal("127.0.0.1"))
		Expect(wm.ServerPort()).To(Equal(Successful(strconv.Atoi(srv.Port()))))
		Expect(wm.MappedPort("8443/tcp")).To(Equal(49153))
		Expect(wm.MappedPort("9999")).Error().To(MatchError(ContainSubstring("not published")))
		Expect(wm.Endpoint()).To(Equal(srv.URL))
		Expect(wm.URL("hello")).To(Equal(srv.URL + "/hello"))
		Expect(wm.URL("/hello")).To(Equal(srv.URL + "/hello"))
		u := Successful(wm.RequestURI("/hello"))
		Expect(u.Path).To(Equal("/hello"))

		srv.Stub("/hello", "Hello, world!")
		resp := Successful(client.Get(wm.URL("/hello")))
		defer resp.Body.Close()
		Expect(io.ReadAll(resp.Body)).To(Equal([]byte("Hello, world!")))

		By("refusing to start twice")
		Expect(wm.Start(ctx)).To(MatchError(ContainSubstring("already started")))

		By("removing the container")
		Expect(wm.Terminate(ctx)).To(Succeed())
		Expect(mm.ContainerTotal()).To(BeZero())
		Expect(wm.ID()).To(BeEmpty())
		Expect(wm.Endpoint()).To(BeEmpty())
		Expect(wm.Terminate(ctx)).To(Succeed())
		Expect(mm.IsClosed()).To(BeFalse())
	})

	It("doesn't pull locally available images", func(ctx context.Context) {
		mm.AddImage("wiremock/wiremock:3.3.1")
		wm := newWireMock(mockwhale.WithTag("3.3.1"), mockwhale.WithMapping("hello", helloMapping))
		Expect(wm.Start(ctx)).To(Succeed())
		defer func() { _ = wm.Terminate(ctx) }()
		Expect(mm.Pulled()).To(BeEmpty())
	})

	It("fails fast on empty mappings and removes the container", func(ctx context.Context) {
		srv.Script(
			fakewiremock.Status(http.StatusServiceUnavailable),
			fakewiremock.Body(`{"mappings":[],"meta":{"total":0}}`))
		wm := newWireMock(mockwhale.WithStartupTimeout(time.Minute))
		start := time.Now()
		err := wm.Start(ctx)
		Expect(time.Since(start)).To(BeNumerically("<", 10*time.Second))
		Expect(err).To(MatchError(readiness.ErrEmptyMappings))
		Expect(err).NotTo(MatchError(readiness.ErrTimeout))
		Expect(err.Error()).To(And(
			ContainSubstring("mappings are empty"),
			ContainSubstring("WithIgnoreEmptyMappings"),
			ContainSubstring(srv.URL)))
		Expect(mm.ContainerTotal()).To(BeZero())
		Expect(wm.ID()).To(BeEmpty())
	})

	It("logs containers that cannot be removed after failing to start", func(ctx context.Context) {
		srv.Script(fakewiremock.Mappings(0))
		logs := gbytes.NewBuffer()
		wm := newWireMock(
			mockwhale.WithEngine(stickyMoby{mm}),
			mockwhale.WithLogger(zerolog.New(logs)))
		Expect(wm.Start(ctx)).To(MatchError(readiness.ErrEmptyMappings))
		Expect(logs).To(gbytes.Say(`"level":"warn".*"error":"cannot remove WireMock container .*container is sticky".*cannot remove WireMock container that failed to start`))
		Expect(mm.ContainerTotal()).To(Equal(1))
		Expect(mm.ContainerRemove(ctx, wm.Name(), container.RemoveOptions{Force: true})).To(Succeed())
	})

	It("starts without mappings when ignoring empty mappings", func(ctx context.Context) {
		srv.Script(fakewiremock.Body(`{"mappings":[]}`))
		wm := newWireMock(
			mockwhale.WithIgnoreEmptyMappings(),
			mockwhale.WithSettlePeriod(100*time.Millisecond))
		Expect(wm.Start(ctx)).To(Succeed())
		defer func() { _ = wm.Terminate(ctx) }()
		Expect(mm.ContainerTotal()).To(Equal(1))
	})

	It("times out and removes the container", func(ctx context.Context) {
		srv.Script(fakewiremock.Status(http.StatusServiceUnavailable))
		wm := newWireMock(
			mockwhale.WithMapping("hello", helloMapping),
			mockwhale.WithStartupTimeout(200*time.Millisecond))
		err := wm.Start(ctx)
		Expect(err).To(MatchError(readiness.ErrTimeout))
		var timeout *readiness.TimeoutError
		Expect(errors.As(err, &timeout)).To(BeTrue())
		Expect(timeout.Timeout).To(Equal(200 * time.Millisecond))
		Expect(mm.ContainerTotal()).To(BeZero())
	})

	It("runs additional wait strategies", func(ctx context.Context) {
		wm := newWireMock(
			mockwhale.WithMapping("hello", helloMapping),
			mockwhale.WithWaitStrategy(readiness.ForHTTP("/health",
				readiness.WithHTTPClient(client),
				readiness.WithPollInterval(10*time.Millisecond),
				readiness.WithStartupTimeout(200*time.Millisecond))))
		Expect(wm.Start(ctx)).To(MatchError(readiness.ErrTimeout))
		Expect(mm.ContainerTotal()).To(BeZero())

		srv.Stub("/health", "OK")
		Expect(wm.Start(ctx)).To(Succeed())
		Expect(wm.Terminate(ctx)).To(Succeed())
	})

	It("forwards container logs", func(ctx context.Context) {
		mm.SetLogs("WireMock started\n", "oh, no\n")
		out := gbytes.NewBuffer()
		wm := newWireMock(
			mockwhale.WithMapping("hello", helloMapping),
			mockwhale.WithLogConsumer(out))
		Expect(wm.Start(ctx)).To(Succeed())
		Eventually(out).Should(gbytes.Say("WireMock started"))
		Eventually(out).Should(gbytes.Say("oh, no"))
		Expect(wm.Terminate(ctx)).To(Succeed())
	})

	DescribeTable("reports engine failures and cleans up",
		func(ctx context.Context, hook mockingmoby.HookKey, expected string) {
			wm := newWireMock(mockwhale.WithMapping("hello", helloMapping))
			ctx = mockingmoby.WithHook(ctx, hook, func(mockingmoby.HookKey) error {
				return errors.New("engine on fire")
			})
			Expect(wm.Start(ctx)).To(MatchError(And(
				ContainSubstring(expected),
				ContainSubstring("engine on fire"))))
			Expect(mm.ContainerTotal()).To(BeZero())
			Expect(wm.ID()).To(BeEmpty())
		},
		Entry(nil, mockingmoby.ImageInspectPre, "cannot inspect image"),
		Entry(nil, mockingmoby.ImagePullPre, "cannot pull image"),
		Entry(nil, mockingmoby.ContainerCreatePre, "cannot create WireMock container"),
		Entry(nil, mockingmoby.CopyToContainerPre, "cannot copy files into WireMock container"),
		Entry(nil, mockingmoby.ContainerStartPre, "cannot start WireMock container"),
		Entry(nil, mockingmoby.ContainerInspectPre, "cannot inspect WireMock container"),
	)

	It("aborts when the context gets cancelled", func(ctx context.Context) {
		srv.Script(fakewiremock.Status(http.StatusServiceUnavailable))
		wm := newWireMock(mockwhale.WithMapping("hello", helloMapping))
		ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
		defer cancel()
		err := wm.Start(ctx)
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(err).NotTo(MatchError(readiness.ErrTimeout))
		Expect(mm.ContainerTotal()).To(BeZero())
	})

	It("fails to start with unreadable mappings without touching the engine", func(ctx context.Context) {
		wm := newWireMock(mockwhale.WithMappingFile("gone", "/nonexisting/gone.json"))
		Expect(wm.Start(ctx)).NotTo(Succeed())
		Expect(mm.Pulled()).To(BeEmpty())
		Expect(mm.ContainerTotal()).To(BeZero())
	})

})
