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

package web_api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/try-catch-f1nally/7zip-online/archive"
	"github.com/try-catch-f1nally/7zip-online/metrics"
	"github.com/try-catch-f1nally/7zip-online/param"
)

// ArchiveAPI bundles the archiving core components behind the archive
// endpoints.
type ArchiveAPI struct {
	Workspace    *archive.Workspace
	Registry     *archive.Registry
	Orchestrator *archive.Orchestrator
	Gate         *archive.Gate
}

// ConfigureServerWebAPI registers every endpoint of the service under
// the configured base URL.
func ConfigureServerWebAPI(router *gin.Engine, api *ArchiveAPI) {
	base := router.Group(param.Server_BaseUrl.GetString())
	configureAuthEndpoints(base)
	configureUserEndpoints(base)

	group := base.Group("/archives", AuthHandler)
	group.POST("", api.createArchiveHandler)
	group.GET("/progress", api.progressHandler)
	group.GET("/download", api.downloadHandler)
}

// createArchiveHandler resets the user's workspace, accepts the
// multipart upload into it, and launches the archiving job. The
// response is fire-and-forget; the job outcome is observable only
// through the progress endpoint.
func (api *ArchiveAPI) createArchiveHandler(ctx *gin.Context) {
	user := ctx.GetString("User")

	// A job still in flight owns its workspace; reject before the
	// destructive reset below. The orchestrator repeats this check
	// atomically, so a submission racing past here is still refused.
	if job, ok := api.Registry.Get(user); ok && job.State == archive.JobRunning {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please wait for the completion of your previous request"})
		return
	}

	if err := api.Workspace.Prepare(user); err != nil {
		if errors.Is(err, archive.ErrWorkspaceBusy) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please wait for the completion of your previous request"})
		} else {
			log.Errorln("Failed to prepare workspace:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		}
		return
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload request"})
		return
	}
	files := form.File["files[]"]
	if len(files) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No files to archive"})
		return
	}

	sizeLimit := param.Archive_FileSizeLimit.GetInt64()
	dir := api.Workspace.Dir(user)
	for _, file := range files {
		if file.Size > sizeLimit {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Max file size is " + fileSizeLimitString(sizeLimit)})
			return
		}
		// Strip any path components a client may smuggle into the
		// file name; everything lands directly under the workspace.
		name := filepath.Base(filepath.Clean(file.Filename))
		if err := ctx.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
			log.Errorln("Failed to save uploaded file:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
			return
		}
	}

	opts := archive.StartOptions{
		Format:   ctx.PostForm("format"),
		Password: ctx.PostForm("password"),
	}
	if err := api.Orchestrator.Start(user, opts); err != nil {
		switch {
		case errors.Is(err, archive.ErrUnsupportedFormat):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported archive format"})
		case errors.Is(err, archive.ErrJobAlreadyRunning):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Please wait for the completion of your previous request"})
		default:
			log.Errorln("Failed to start archiving job:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		}
		return
	}
	ctx.Status(http.StatusAccepted)
}

func (api *ArchiveAPI) progressHandler(ctx *gin.Context) {
	user := ctx.GetString("User")
	progress, err := api.Registry.Snapshot(user)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "There is no archive in progress"})
		return
	}
	switch progress.Status {
	case archive.JobRunning:
		ctx.JSON(http.StatusOK, gin.H{"status": "process", "percentage": progress.Percentage})
	case archive.JobSucceeded:
		ctx.JSON(http.StatusOK, gin.H{"status": "success"})
	default:
		ctx.JSON(http.StatusOK, gin.H{"status": "error", "errorMessage": progress.ErrorMessage})
	}
}

func (api *ArchiveAPI) downloadHandler(ctx *gin.Context) {
	user := ctx.GetString("User")
	archivePath, done, err := api.Gate.Resolve(user)
	if err != nil {
		switch {
		case errors.Is(err, archive.ErrNotReady):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Archive is not ready yet"})
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Archive for download not found"})
		}
		return
	}
	if _, statErr := os.Stat(archivePath); statErr != nil {
		log.Errorln("Archive file is missing at download time:", statErr)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Archive for download not found"})
		return
	}
	ctx.FileAttachment(archivePath, filepath.Base(archivePath))
	metrics.ArchiveDownloadsTotal.Inc()
	done()
}

func fileSizeLimitString(limit int64) string {
	if limit > 1<<30 {
		return fmt.Sprintf("%dGb", limit/(1<<30))
	}
	return fmt.Sprintf("%dMb", limit/(1<<20))
}
