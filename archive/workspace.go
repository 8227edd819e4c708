/***************************************************************
 *
 * Copyright (C) 2024, The 7zip-online Developers
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

package archive

import (
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// ErrWorkspaceBusy indicates the workspace could not be reset because
// its contents are still held open, typically by an in-flight download
// stream or a running compression subprocess. Callers surface it as a
// retriable client condition, not a server fault.
var ErrWorkspaceBusy = errors.New("workspace is busy")

// Workspace owns the per-user upload directories under a single root.
// Each user's directory holds the raw uploads and, transiently, the
// intermediate and final archive files.
type Workspace struct {
	root string
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

// Dir maps a user identifier to its workspace directory. Pure; no side
// effects.
func (w *Workspace) Dir(userID string) string {
	return filepath.Join(w.root, userID)
}

// Prepare force-removes any existing workspace content for the user and
// recreates the directory empty. Starting a new job always discards the
// previous job's files and progress. A removal failure from a handle or
// lock still held against the tree maps to ErrWorkspaceBusy, a
// retriable client condition; any other failure is a server fault and
// is returned as such.
func (w *Workspace) Prepare(userID string) error {
	dir := w.Dir(userID)
	if err := os.RemoveAll(dir); err != nil {
		if isBusyError(err) {
			return errors.Wrapf(ErrWorkspaceBusy, "failed to reset workspace %s: %v", dir, err)
		}
		return errors.Wrapf(err, "failed to reset workspace %s", dir)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return errors.Wrapf(err, "failed to create workspace %s", dir)
	}
	return nil
}

// isBusyError reports whether a removal failure means the tree is still
// held open or locked, as opposed to a server fault such as a
// permission problem on the upload root.
func isBusyError(err error) bool {
	return errors.Is(err, syscall.EBUSY) || errors.Is(err, syscall.ETXTBSY)
}

// Purge removes the user's workspace directory and everything in it.
// Tolerant of the directory not existing.
func (w *Workspace) Purge(userID string) error {
	dir := w.Dir(userID)
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to purge workspace %s", dir)
	}
	return nil
}
