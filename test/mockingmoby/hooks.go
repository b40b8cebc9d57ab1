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

import "context"

// HookKey identifies a particular API pre hook.
type HookKey string

const (
	ImageInspectPre     = HookKey("imageinspectpre")
	ImagePullPre        = HookKey("imagepullpre")
	ContainerCreatePre  = HookKey("containercreatepre")
	CopyToContainerPre  = HookKey("copytocontainerpre")
	ContainerStartPre   = HookKey("containerstartpre")
	ContainerInspectPre = HookKey("containerinspectpre")
	ContainerLogsPre    = HookKey("containerlogspre")
	ContainerRemovePre  = HookKey("containerremovepre")
)

// Hook is a hook function called in the processing of a service API request.
// Hook functions get passed HookKeys for the specific types of API requests.
// Hooks might return errors in order to early abort an API request, making
// it fail with the hook's error.
//
// Please note: hooks never get called for API requests that were already called
// with a "Done" context (cancelled or timed out).
type Hook func(HookKey) error

// WithHook returns a new context with the specific Hook added.
func WithHook(ctx context.Context, key HookKey, hook Hook) context.Context {
	return context.WithValue(ctx, key, hook)
}

// callHook calls the specific type of Hook, if currently registered in this
// context.
func callHook(ctx context.Context, key HookKey) error {
	if h := ctx.Value(key); h != nil {
		return h.(Hook)(key)
	}
	return nil
}

// enter checks that the context isn't done yet and then calls the specific
// type of Hook, if registered.
func enter(ctx context.Context, key HookKey) error {
	if err := isCtxCancelled(ctx); err != nil {
		return err
	}
	return callHook(ctx, key)
}
