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

import "context"

type EventKind int

const (
	// EventProgress carries a completion percentage in [0,100].
	EventProgress EventKind = iota
	// EventSucceeded is the terminal success event of an invocation.
	EventSucceeded
	// EventFailed is the terminal failure event of an invocation.
	EventFailed
)

// Event is one message in a runner invocation's ordered stream. Exactly
// one terminal event (Succeeded or Failed) ends each stream, after
// which the channel is closed.
type Event struct {
	Kind    EventKind
	Percent float64
	Err     error
}

// RunSpec describes a single compression-tool invocation.
type RunSpec struct {
	// Source is a path or glob pattern naming what to archive.
	Source string
	// Destination is the archive file to produce.
	Destination string
	// Password, when non-empty, encrypts the archive contents.
	Password string
	// HeaderEncryption additionally encrypts archive headers so file
	// names do not leak from passworded 7z archives.
	HeaderEncryption bool
}

// Runner runs one compression-tool invocation out-of-line and delivers
// its progress and terminal outcome as an ordered event stream. Run
// returns immediately; canceling the context terminates the underlying
// process and fails the stream.
type Runner interface {
	Run(ctx context.Context, spec RunSpec) <-chan Event
}
