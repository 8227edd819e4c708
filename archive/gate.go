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
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrNotReady indicates the job is still running.
	ErrNotReady = errors.New("archive is not ready yet")
	// ErrNotFound indicates there is no downloadable artifact: either no
	// job was ever started or the job failed. The download path does not
	// distinguish the two; only the progress path does.
	ErrNotFound = errors.New("archive for download not found")
)

// Gate validates that a job is downloadable and schedules the delayed
// cleanup of workspace and job record after a completed transfer. The
// grace delay tolerates resumed or retried downloads of the same
// artifact without forcing the user to re-archive.
type Gate struct {
	registry  *Registry
	workspace *Workspace
	pending   *ttlcache.Cache[string, string]
}

func NewGate(registry *Registry, workspace *Workspace, cleanupDelay time.Duration) *Gate {
	gate := &Gate{
		registry:  registry,
		workspace: workspace,
		pending:   ttlcache.New(ttlcache.WithTTL[string, string](cleanupDelay)),
	}
	gate.pending.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, string]) {
		if reason != ttlcache.EvictionReasonExpired {
			return
		}
		gate.cleanup(item.Key())
	})
	go gate.pending.Start()
	return gate
}

// Resolve checks whether the user's archive can be downloaded. On
// success it returns the archive path together with a completion
// callback the caller must invoke once the byte transfer has finished
// (whether or not the transfer itself succeeded); the callback arms the
// delayed cleanup.
func (g *Gate) Resolve(userID string) (string, func(), error) {
	job, ok := g.registry.Get(userID)
	if ok && job.State == JobRunning {
		return "", nil, ErrNotReady
	}
	if !ok || job.State != JobSucceeded {
		return "", nil, ErrNotFound
	}
	done := func() {
		g.pending.Set(userID, job.ArchivePath, ttlcache.DefaultTTL)
	}
	return job.ArchivePath, done, nil
}

// Stop halts the cleanup scheduler. Entries still pending are dropped
// without purging; the next workspace prepare force-removes leftovers.
func (g *Gate) Stop() {
	g.pending.Stop()
}

func (g *Gate) cleanup(userID string) {
	// A new job may have started during the grace period; its workspace
	// must not be pulled out from under it.
	if job, ok := g.registry.Get(userID); ok && job.State == JobRunning {
		log.WithField("user", userID).Debugln("Skipping post-download cleanup, a new job is running")
		return
	}
	if err := g.workspace.Purge(userID); err != nil {
		log.WithField("user", userID).Errorln("Failed to remove downloaded archive files:", err)
		return
	}
	g.registry.Remove(userID)
}
