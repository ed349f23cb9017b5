/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package pool

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a repository source or package is missing.
	ErrNotFound = errors.New("not found")

	// ErrParse is returned on malformed repository metadata.
	ErrParse = errors.New("malformed repository metadata")

	// ErrIntegrity is returned when a native cache blob does not match its
	// expected content fingerprint.
	ErrIntegrity = errors.New("cache fingerprint mismatch")

	// ErrInvalidHandle is returned when a RepoInfo or solvable id is used
	// after its owning repository was removed from the pool. This is a
	// programming contract violation, not recoverable business logic.
	ErrInvalidHandle = errors.New("invalid handle: owning repository was removed")
)
