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

package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/try-catch-f1nally/7zip-online/archive"
	"github.com/try-catch-f1nally/7zip-online/config"
	"github.com/try-catch-f1nally/7zip-online/database"
	"github.com/try-catch-f1nally/7zip-online/param"
	"github.com/try-catch-f1nally/7zip-online/web_api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the archiving web service",
	RunE:  serveMain,
}

func serveMain(cmd *cobra.Command, args []string) error {
	if err := config.InitConfig(cfgFile); err != nil {
		return err
	}
	if err := database.InitServerDatabase(); err != nil {
		return err
	}
	defer func() {
		if err := database.ShutdownDB(); err != nil {
			log.Errorln("Failed to shut down the database:", err)
		}
	}()

	workspace := archive.NewWorkspace(param.Archive_UploadDir.GetString())
	registry := archive.NewRegistry()
	runner := &archive.SevenZipRunner{Bin: param.Archive_SevenZipPath.GetString()}
	orchestrator := archive.NewOrchestrator(registry, workspace, runner, param.Archive_StageTimeout.GetDuration())
	gate := archive.NewGate(registry, workspace, param.Archive_CleanupDelay.GetDuration())
	defer gate.Stop()

	engine := web_api.GetEngine()
	engine.MaxMultipartMemory = 32 << 20
	web_api.ConfigureServerWebAPI(engine, &web_api.ArchiveAPI{
		Workspace:    workspace,
		Registry:     registry,
		Orchestrator: orchestrator,
		Gate:         gate,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	egrp, ctx := errgroup.WithContext(ctx)
	egrp.Go(func() error { return web_api.RunEngine(ctx, engine) })
	egrp.Go(func() error { return periodicTokenPrune(ctx) })

	err := egrp.Wait()
	log.Infoln("Application successfully stopped")
	return err
}

// Expired refresh tokens accumulate between logins; sweep them hourly.
func periodicTokenPrune(ctx context.Context) error {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := database.PruneExpiredTokens(database.ServerDatabase); err != nil {
				log.Warnln("Failed to prune expired refresh tokens:", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
