/*
Package mockingmoby is a very minimalist Docker mock client designed for unit
tests of the mockwhale package. It supports just enough of the image and
container service API to create, provision, start, inspect, follow the logs
of, and finally remove a mocked WireMock container, without any real container
engine present.

Mocked containers don't run anything. Instead, their published ports can be
pointed to a fake WireMock HTTP server using PublishPort, so that readiness
probing talks to the fake server. Files copied into a mocked container are
unpacked from their tar archive and kept for later inspection.

But in contrast to using a real Docker client in unit tests mockingmoby offers
service API hooks which get called at the beginning of service API calls. This
can be used to inject engine failures at exact logical steps without the need
to instrument production code under test with hooks. The service API hooks are
passed in via (service) context values.
*/
package mockingmoby
