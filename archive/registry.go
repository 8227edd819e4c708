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
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrNoActiveJob indicates the user has never started a job (or the
// record has been cleaned up after download).
var ErrNoActiveJob = errors.New("there is no archive in progress")

// ErrJobAlreadyRunning indicates the user re-submitted while their
// previous job was still in flight. The wire response it maps to asks
// the client to wait for the previous request to complete.
var ErrJobAlreadyRunning = errors.New("an archiving job is already running")

const unknownErrorDetail = "Unknown error"

// Registry is the single synchronization point for job state. It maps a
// user identifier to that user's one active or most recent Job. It is
// safe for concurrent use from request handlers and from the
// orchestrator's background pipeline goroutines.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Start inserts a fresh Running record for the user, replacing a
// terminal record. A record still in the Running state is left
// untouched and ErrJobAlreadyRunning is returned; the check and the
// insert happen under one lock, so two concurrent submissions for the
// same user can never both register.
func (r *Registry) Start(userID, archivePath string, twoStage bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[userID]; ok && job.State == JobRunning {
		return ErrJobAlreadyRunning
	}
	r.jobs[userID] = &Job{
		ArchivePath: archivePath,
		TwoStage:    twoStage,
		State:       JobRunning,
		StartedAt:   time.Now(),
	}
	return nil
}

// UpdateStageProgress records a progress fraction for one stage of the
// user's job, clamped to [0,100]. Progress never decreases; stale or
// out-of-order updates are dropped. A missing record is a no-op, which
// covers the race between a late progress event and cleanup.
func (r *Registry) UpdateStageProgress(userID string, stage Stage, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[userID]
	if !ok {
		return
	}
	percent = math.Min(math.Max(percent, 0), 100)
	switch stage {
	case StageBundle:
		if percent > job.StageOneProgress {
			job.StageOneProgress = percent
		}
	case StageCompress:
		if percent > job.StageTwoProgress {
			job.StageTwoProgress = percent
		}
	}
}

// MarkSucceeded transitions the user's job to its successful terminal
// state. No-op if no record exists.
func (r *Registry) MarkSucceeded(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[userID]; ok {
		job.State = JobSucceeded
		job.FinishedAt = time.Now()
	}
}

// MarkFailed transitions the user's job to its failed terminal state,
// capturing the failure detail for the progress endpoint.
func (r *Registry) MarkFailed(userID, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[userID]; ok {
		job.State = JobFailed
		job.ErrorDetail = detail
		job.FinishedAt = time.Now()
	}
}

// Get returns a copy of the user's job record.
func (r *Registry) Get(userID string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[userID]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Remove deletes the user's job record. Used by the post-download
// cleanup; subsequent progress queries fail with ErrNoActiveJob.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, userID)
}

// Snapshot returns the client-facing progress view of the user's job.
//
// While running, a two-stage job reports a weighted percentage
// (bundling counts for 5%, compression for 95%, rounded up); a
// single-stage job reports the bundling progress as-is. Terminal states
// carry either nothing (success) or the captured failure detail.
func (r *Registry) Snapshot(userID string) (Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[userID]
	if !ok {
		return Progress{}, ErrNoActiveJob
	}
	switch job.State {
	case JobRunning:
		percentage := job.StageOneProgress
		if job.TwoStage {
			percentage = math.Ceil(job.StageOneProgress*bundleWeight + job.StageTwoProgress*compressWeight)
		}
		return Progress{Status: JobRunning, Percentage: percentage}, nil
	case JobSucceeded:
		return Progress{Status: JobSucceeded}, nil
	default:
		detail := job.ErrorDetail
		if detail == "" {
			detail = unknownErrorDetail
		}
		return Progress{Status: JobFailed, ErrorMessage: detail}, nil
	}
}
