// Copyright 2021 Harald Albrecht.
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
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/onsi/gomega/gstruct"
	. "github.com/thediveo/success"
)

const mockImage = "wiremock/wiremock:latest"

func tarOf(files map[string]string) io.Reader {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		Expect(tw.WriteHeader(&tar.Header{
			Typeflag: tar.TypeReg,
			Name:     name,
			Mode:     0644,
			Size:     int64(len(content)),
		})).To(Succeed())
		Expect(tw.Write([]byte(content))).Error().NotTo(HaveOccurred())
	}
	Expect(tw.Close()).To(Succeed())
	return &buf
}

var _ = Describe("mockingmoby", func() {

	var mm *MockingMoby

	BeforeEach(func() {
		goodgos := Goroutines()
		mm = NewMockingMoby()
		DeferCleanup(func() {
			Expect(mm.Close()).To(Succeed())
			Expect(mm.IsClosed()).To(BeTrue())
			Eventually(Goroutines).ShouldNot(HaveLeaked(goodgos))
		})
	})

	create := func(ctx context.Context, name string) string {
		mm.AddImage(mockImage)
		created := Successful(mm.ContainerCreate(ctx,
			&container.Config{
				Image:        mockImage,
				Cmd:          []string{"--disable-banner"},
				Labels:       map[string]string{"motto": "I'm not dead yet"},
				ExposedPorts: nat.PortSet{"8080/tcp": {}, "8443/tcp": {}},
			},
			&container.HostConfig{PublishAllPorts: true},
			nil, &ocispec.Platform{OS: "linux", Architecture: "arm", Variant: "v7"}, name))
		return created.ID
	}

	It("pulls missing images", func(ctx context.Context) {
		Expect(mm.DaemonHost()).NotTo(BeEmpty())
		_, _, err := mm.ImageInspectWithRaw(ctx, mockImage)
		Expect(errdefs.IsNotFound(err)).To(BeTrue())

		progress := Successful(mm.ImagePull(ctx, "docker.io/wiremock/wiremock", types.ImagePullOptions{}))
		Expect(io.ReadAll(progress)).To(ContainSubstring("Download complete"))
		Expect(progress.Close()).To(Succeed())
		Expect(mm.Pulled()).To(ConsistOf("docker.io/wiremock/wiremock:latest"))

		Expect(mm.ImageInspectWithRaw(ctx, mockImage)).Error().NotTo(HaveOccurred())
	})

	It("creates containers only from available images and with unique names", func(ctx context.Context) {
		_, err := mm.ContainerCreate(ctx, &container.Config{Image: "foo:bar"}, nil, nil, nil, "")
		Expect(errdefs.IsNotFound(err)).To(BeTrue())

		id := create(ctx, "mocking_moby")
		Expect(id).To(HaveLen(64))
		_, err = mm.ContainerCreate(ctx, &container.Config{Image: mockImage}, nil, nil, nil, "mocking_moby")
		Expect(errdefs.IsConflict(err)).To(BeTrue())

		c, ok := mm.Container("mocking_moby")
		Expect(ok).To(BeTrue())
		Expect(c).To(MatchFields(IgnoreExtras, Fields{
			"ID":           Equal(id),
			"Status":       Equal(MockedCreated),
			"Image":        Equal(mockImage),
			"Platform":     Equal("linux/arm/v7"),
			"Cmd":          ConsistOf("--disable-banner"),
			"ExposedPorts": Equal([]nat.Port{"8080/tcp", "8443/tcp"}),
			"PublishAll":   BeTrue(),
		}))
		Expect(mm.ContainerTotal()).To(Equal(1))
	})

	It("unpacks copied files", func(ctx context.Context) {
		id := create(ctx, "")
		Expect(mm.CopyToContainer(ctx, id, "/", tarOf(map[string]string{
			"home/wiremock/mappings/hello.json": `{"request":{}}`,
			"var/wiremock/extensions/ext.jar":   "PK",
		}), types.CopyToContainerOptions{})).To(Succeed())
		c, _ := mm.Container(id)
		Expect(c.FilePaths()).To(Equal([]string{
			"/home/wiremock/mappings/hello.json",
			"/var/wiremock/extensions/ext.jar",
		}))
		Expect(string(c.Files["/home/wiremock/mappings/hello.json"])).To(Equal(`{"request":{}}`))

		Expect(mm.CopyToContainer(ctx, "foo", "/", tarOf(nil), types.CopyToContainerOptions{})).
			To(MatchError(ContainSubstring("No such container")))
		Expect(mm.CopyToContainer(ctx, id, "/", bytes.NewBufferString("garbage"), types.CopyToContainerOptions{})).
			NotTo(Succeed())
	})

	It("publishes ports on start and inspects containers by ID and name", func(ctx context.Context) {
		mm.PublishPort("8080", "12345")
		id := create(ctx, "furious_furuncle")
		Expect(mm.ContainerStart(ctx, "furious_furuncle", container.StartOptions{})).To(Succeed())
		Expect(mm.ContainerStart(ctx, id, container.StartOptions{})).To(Succeed())
		Expect(mm.ContainerStart(ctx, "foo", container.StartOptions{})).NotTo(Succeed())

		for _, nameorid := range []string{id, "furious_furuncle"} {
			details := Successful(mm.ContainerInspect(ctx, nameorid))
			Expect(details).To(MatchFields(IgnoreExtras, Fields{
				"ContainerJSONBase": PointTo(MatchFields(IgnoreExtras, Fields{
					"ID":   Equal(id),
					"Name": Equal("/furious_furuncle"),
					"State": PointTo(MatchFields(IgnoreExtras, Fields{
						"Status":  Equal("running"),
						"Running": BeTrue(),
					})),
				})),
				"Config": PointTo(MatchFields(IgnoreExtras, Fields{
					"Labels": HaveKeyWithValue("motto", "I'm not dead yet"),
				})),
			}))
			Expect(details.NetworkSettings.Ports).To(HaveKeyWithValue(
				nat.Port("8080/tcp"), ContainElement(nat.PortBinding{HostIP: "0.0.0.0", HostPort: "12345"})))
			Expect(details.NetworkSettings.Ports).To(HaveKeyWithValue(
				nat.Port("8443/tcp"), ContainElement(HaveField("HostPort", "49153"))))
		}

		mm.StopContainer(id)
		details := Successful(mm.ContainerInspect(ctx, id))
		Expect(details.State.Running).To(BeFalse())
		Expect(details.NetworkSettings.Ports).To(BeEmpty())

		_, err := mm.ContainerInspect(ctx, "foo")
		Expect(errdefs.IsNotFound(err)).To(BeTrue())
	})

	It("streams logs until the container is gone", func(ctx context.Context) {
		mm.SetLogs("hello\n", "oops\n")
		id := create(ctx, "")
		Expect(mm.ContainerStart(ctx, id, container.StartOptions{})).To(Succeed())

		logs := Successful(mm.ContainerLogs(ctx, id, container.LogsOptions{
			ShowStdout: true, ShowStderr: true}))
		var stdout, stderr bytes.Buffer
		Expect(stdcopy.StdCopy(&stdout, &stderr, logs)).Error().NotTo(HaveOccurred())
		Expect(stdout.String()).To(Equal("hello\n"))
		Expect(stderr.String()).To(Equal("oops\n"))

		logs = Successful(mm.ContainerLogs(ctx, id, container.LogsOptions{
			ShowStdout: true, Follow: true}))
		done := make(chan struct{})
		go func() {
			defer GinkgoRecover()
			defer close(done)
			var stdout bytes.Buffer
			_, _ = stdcopy.StdCopy(&stdout, io.Discard, logs)
			Expect(stdout.String()).To(Equal("hello\n"))
		}()
		Consistently(done).WithTimeout(200 * time.Millisecond).ShouldNot(BeClosed())

		Expect(errdefs.IsConflict(mm.ContainerRemove(ctx, id, container.RemoveOptions{}))).To(BeTrue())
		Expect(mm.ContainerRemove(ctx, id, container.RemoveOptions{Force: true})).To(Succeed())
		Eventually(done).Should(BeClosed())
		Expect(mm.ContainerTotal()).To(BeZero())
		Expect(errdefs.IsNotFound(mm.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}))).To(BeTrue())
	})

	It("recognizes cancelled context", func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		Expect(mm.ImageInspectWithRaw(ctx, mockImage)).Error().To(MatchError(context.Canceled))
		Expect(mm.ContainerInspect(ctx, "foo")).Error().To(MatchError(context.Canceled))
	})

	It("registers and calls hooks", func(ctx context.Context) {
		doh := errors.New("doh!")
		mm.AddImage(mockImage)
		_, err := mm.ContainerCreate(
			WithHook(ctx, ContainerCreatePre, func(key HookKey) error {
				Expect(key).To(Equal(ContainerCreatePre))
				return doh
			}),
			&container.Config{Image: mockImage}, nil, nil, nil, "")
		Expect(err).To(Equal(doh))
		Expect(mm.ContainerTotal()).To(BeZero())

		id := create(ctx, "")
		Expect(mm.ContainerStart(
			WithHook(ctx, ContainerStartPre, func(HookKey) error { return doh }),
			id, container.StartOptions{})).To(Equal(doh))
		c, _ := mm.Container(id)
		Expect(c.Status).To(Equal(MockedCreated))
	})

})
