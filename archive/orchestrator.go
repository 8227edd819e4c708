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
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/try-catch-f1nally/7zip-online/metrics"
)

const archiveBaseName = "Archive"

// StartOptions are the user-supplied parameters of an archiving job.
type StartOptions struct {
	Format   string
	Password string
}

// Orchestrator drives archiving jobs: it validates the requested
// format, registers the job, and runs the one- or two-stage pipeline
// through the injected Runner in the background, reporting progress and
// the terminal outcome through the Registry.
type Orchestrator struct {
	registry     *Registry
	workspace    *Workspace
	runner       Runner
	stageTimeout time.Duration
}

func NewOrchestrator(registry *Registry, workspace *Workspace, runner Runner, stageTimeout time.Duration) *Orchestrator {
	return &Orchestrator{
		registry:     registry,
		workspace:    workspace,
		runner:       runner,
		stageTimeout: stageTimeout,
	}
}

// Start registers a fresh Running job for the user and launches the
// pipeline in the background. A job still in flight is never replaced;
// Start returns ErrJobAlreadyRunning instead. It assumes the workspace
// has already been prepared and populated with the user's uploads, and
// returns immediately; progress is observable only through
// Registry.Snapshot.
func (o *Orchestrator) Start(userID string, opts StartOptions) error {
	format, err := ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	dir := o.workspace.Dir(userID)
	bundlePath := filepath.Join(dir, archiveBaseName+"."+format.Container)
	finalPath := bundlePath
	if format.TwoStage() {
		finalPath = filepath.Join(dir, archiveBaseName+"."+format.String())
	}

	// The registry performs the running-job check and the insert under
	// one lock; a concurrent submission for the same user loses here.
	if err := o.registry.Start(userID, finalPath, format.TwoStage()); err != nil {
		return err
	}
	metrics.ArchiveJobsRunning.Inc()

	go o.drive(userID, dir, bundlePath, finalPath, format, opts.Password)
	return nil
}

func (o *Orchestrator) drive(userID, dir, bundlePath, finalPath string, format Format, password string) {
	// Passworded bare 7z archives get header encryption so the file
	// listing is not readable without the password.
	headerEncryption := password != "" && format.String() == "7z"

	bundleSpec := RunSpec{
		Source:           filepath.Join(dir, "*"),
		Destination:      bundlePath,
		Password:         password,
		HeaderEncryption: headerEncryption,
	}
	if err := o.runStage(userID, StageBundle, bundleSpec); err != nil {
		o.fail(userID, bundlePath, err)
		return
	}

	if format.TwoStage() {
		compressSpec := RunSpec{
			Source:           bundlePath,
			Destination:      finalPath,
			Password:         password,
			HeaderEncryption: headerEncryption,
		}
		if err := o.runStage(userID, StageCompress, compressSpec); err != nil {
			o.fail(userID, finalPath, err)
			return
		}
	}

	o.registry.MarkSucceeded(userID)
	metrics.ArchiveJobsRunning.Dec()
	metrics.ArchiveJobsTotal.WithLabelValues("succeeded").Inc()
	log.WithFields(log.Fields{"user": userID, "archive": finalPath}).Debugln("Archiving job succeeded")
}

// runStage consumes one runner invocation's event stream, forwarding
// progress into the registry. The stage runs under the configured
// watchdog timeout; on expiry the subprocess is terminated and the
// stage fails.
func (o *Orchestrator) runStage(userID string, stage Stage, spec RunSpec) error {
	ctx := context.Background()
	if o.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.stageTimeout)
		defer cancel()
	}

	for event := range o.runner.Run(ctx, spec) {
		switch event.Kind {
		case EventProgress:
			o.registry.UpdateStageProgress(userID, stage, event.Percent)
		case EventSucceeded:
			o.registry.UpdateStageProgress(userID, stage, 100)
			return nil
		case EventFailed:
			if errors.Is(event.Err, context.DeadlineExceeded) {
				return errors.Wrapf(event.Err, "stage exceeded the maximum duration of %s", o.stageTimeout)
			}
			return event.Err
		}
	}
	return errors.New("compression event stream ended without a terminal event")
}

// fail records the terminal failure and best-effort purges the
// workspace; a purge failure is logged for operators, never surfaced.
func (o *Orchestrator) fail(userID, destination string, err error) {
	o.registry.MarkFailed(userID, err.Error())
	metrics.ArchiveJobsRunning.Dec()
	metrics.ArchiveJobsTotal.WithLabelValues("failed").Inc()
	log.WithFields(log.Fields{"user": userID, "archive": destination}).Debugln("Error on creating archive:", err)
	if purgeErr := o.workspace.Purge(userID); purgeErr != nil {
		log.WithField("user", userID).Errorln("Failed to purge workspace after job failure:", purgeErr)
	}
}
