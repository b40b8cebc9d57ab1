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
	"fmt"

	"github.com/distribution/reference"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"
)

const (
	// OfficialImageName is the repository of the official WireMock image.
	OfficialImageName = "wiremock/wiremock"
	// DefaultTag is used when no tag is given.
	DefaultTag = "latest"
	// DefaultImage is the image used unless told otherwise.
	DefaultImage = OfficialImageName + ":" + DefaultTag
	// WireMock2MinimumSupportedVersion is the oldest WireMock version of the
	// official image that is supported.
	WireMock2MinimumSupportedVersion = "2.0.0"
)

// ImageName is a normalized Docker image reference, optionally declared to be
// a compatible substitute for another image, such as the official WireMock
// image.
type ImageName struct {
	named         reference.Named
	substituteFor string // familiar repository name, if any.
}

// ParseImageName parses the specified image reference, such as
// "wiremock/wiremock:3.3.1". A missing tag defaults to "latest".
func ParseImageName(image string) (ImageName, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return ImageName{}, errors.Wrapf(err, "invalid image name %q", image)
	}
	return ImageName{named: reference.TagNameOnly(named)}, nil
}

// MustParseImageName is like ParseImageName, but panics on invalid image
// references.
func MustParseImageName(image string) ImageName {
	n, err := ParseImageName(image)
	if err != nil {
		panic(err)
	}
	return n
}

// AsCompatibleSubstituteFor returns a copy of this image name that is declared
// to be a compatible substitute for the other image repository.
func (n ImageName) AsCompatibleSubstituteFor(other string) ImageName {
	if named, err := reference.ParseNormalizedNamed(other); err == nil {
		other = reference.FamiliarName(named)
	}
	n.substituteFor = other
	return n
}

// IsCompatibleWith returns true if this image either is from the other
// repository or has been declared a compatible substitute for it.
func (n ImageName) IsCompatibleWith(other string) bool {
	if n.named == nil {
		return false
	}
	if named, err := reference.ParseNormalizedNamed(other); err == nil {
		other = reference.FamiliarName(named)
	}
	return n.Repository() == other || n.substituteFor == other
}

// Repository returns the familiar repository name, such as
// "wiremock/wiremock".
func (n ImageName) Repository() string {
	if n.named == nil {
		return ""
	}
	return reference.FamiliarName(n.named)
}

// Tag returns the image tag; it is empty for digest-only references.
func (n ImageName) Tag() string {
	if tagged, ok := n.named.(reference.Tagged); ok {
		return tagged.Tag()
	}
	return ""
}

// Ref returns the fully qualified reference, such as
// "docker.io/wiremock/wiremock:latest", suitable for pulling.
func (n ImageName) Ref() string {
	if n.named == nil {
		return ""
	}
	return n.named.String()
}

// String returns the familiar form of the reference, such as
// "wiremock/wiremock:latest".
func (n ImageName) String() string {
	if n.named == nil {
		return ""
	}
	return reference.FamiliarString(n.named)
}

// verify checks that the image is either the official WireMock image in a
// supported version or a compatible substitute for it. Official image tags
// not looking like versions, such as "latest" or "nightly", are accepted.
func (n ImageName) verify() error {
	if !n.IsCompatibleWith(OfficialImageName) {
		return fmt.Errorf("Failed to verify that image '%s' is a compatible substitute for '%s'",
			n, OfficialImageName)
	}
	if n.Repository() != OfficialImageName {
		return nil
	}
	if !IsSupportedVersion(n.Tag()) {
		return fmt.Errorf("For the official image, the WireMock version must be >= %s, but is %s",
			WireMock2MinimumSupportedVersion, n.Tag())
	}
	return nil
}

// IsSupportedVersion returns false only for version-like tags, such as
// "1.58" or "2.35.1-1", that are older than the minimum supported WireMock
// version. Tags that do not look like versions are accepted.
func IsSupportedVersion(tag string) bool {
	v := "v" + tag
	if !semver.IsValid(v) {
		return true
	}
	return semver.Compare(semver.Canonical(v), "v"+WireMock2MinimumSupportedVersion) >= 0
}
