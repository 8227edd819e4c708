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

// Package archive implements the archiving job orchestrator: per-user
// workspace lifecycle, the two-stage compression pipeline driven through
// an external 7-Zip subprocess, asynchronous progress tracking, and
// download admission with delayed cleanup.
package archive

import "time"

type JobState string

const (
	JobRunning   JobState = "process"
	JobSucceeded JobState = "success"
	JobFailed    JobState = "error"
)

// Stage identifies one of the two pipeline stages of a job.
type Stage int

const (
	// StageBundle combines the uploaded files into a container archive.
	StageBundle Stage = iota + 1
	// StageCompress applies additional compression to the bundle.
	StageCompress
)

// Job tracks one archiving request for one user. At most one Job exists
// per user at any time; all mutation goes through the Registry.
type Job struct {
	ArchivePath      string
	TwoStage         bool
	State            JobState
	ErrorDetail      string
	StageOneProgress float64
	StageTwoProgress float64
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Weights of the two stages in the reported percentage of a two-stage
// job. Bundling is cheap compared to compression, so it contributes
// little to the overall figure. These constants are part of the wire
// behavior and must not change.
const (
	bundleWeight   = 0.05
	compressWeight = 0.95
)

// Progress is the client-facing snapshot of a job, shaped to match the
// progress endpoint's JSON contract.
type Progress struct {
	Status       JobState
	Percentage   float64
	ErrorMessage string
}
