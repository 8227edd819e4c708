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

// Package database persists user accounts and refresh tokens in a
// sqlite database managed through gorm.
package database

import (
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/try-catch-f1nally/7zip-online/param"
)

var ServerDatabase *gorm.DB

// InitServerDatabase opens (creating if needed) the sqlite database at
// the configured location and migrates the schema.
func InitServerDatabase() error {
	dbPath := param.Server_DbLocation.GetString()
	log.Debugln("Initializing server database:", dbPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory for sqlite database at %s", dbPath)
	}

	dbName := dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{Logger: logger.Default.LogMode(ormLogLevel())})
	if err != nil {
		return errors.Wrapf(err, "failed to open the database with path: %s", dbPath)
	}
	ServerDatabase = db

	if err := ServerDatabase.AutoMigrate(&User{}, &RefreshToken{}); err != nil {
		return errors.Wrap(err, "failed to migrate database schema")
	}
	return nil
}

func ormLogLevel() logger.LogLevel {
	switch log.GetLevel() {
	case log.DebugLevel, log.TraceLevel:
		return logger.Info
	case log.WarnLevel:
		return logger.Warn
	default:
		return logger.Error
	}
}

func ShutdownDB() error {
	if ServerDatabase == nil {
		return nil
	}
	sqldb, err := ServerDatabase.DB()
	if err != nil {
		log.Errorln("Failure when getting database instance from gorm:", err)
		return err
	}
	if err = sqldb.Close(); err != nil {
		log.Errorln("Failure when shutting down the database:", err)
	}
	return err
}
