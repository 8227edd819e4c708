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
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/try-catch-f1nally/7zip-online/config"
	"github.com/try-catch-f1nally/7zip-online/param"
)

// RunEngine serves the engine until the context is canceled, then shuts
// the listener down gracefully within the configured shutdown timeout.
func RunEngine(ctx context.Context, engine http.Handler) error {
	if !config.IsInitialized() {
		log.Warnln("Configuration was never initialized; the server is running on defaults")
	}
	addr := fmt.Sprintf(":%d", param.Server_Port.GetInt())
	server := &http.Server{Addr: addr, Handler: engine}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()
	log.Infoln("Application started listening on", addr)

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "Web engine startup failed")
	case <-ctx.Done():
	}

	log.Infoln("Stopping server from accepting new connections...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnln("Graceful shutdown timed out, closing connections:", err)
		return server.Close()
	}
	return nil
}

// An unset or invalid shutdown timeout falls back to three seconds.
func shutdownTimeout() time.Duration {
	if d := param.Server_ShutdownTimeout.GetDuration(); d > 0 {
		return d
	}
	return 3 * time.Second
}
