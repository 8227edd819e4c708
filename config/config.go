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

// Package config initializes the server configuration from defaults, an
// optional YAML config file, and SEVENZIP_ONLINE_* environment overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/atomic"

	"github.com/try-catch-f1nally/7zip-online/param"
)

var initialized atomic.Bool

// InitConfig sets up viper defaults, reads the optional config file
// (explicit path, or sevenzip-online.yaml in /etc/sevenzip-online and the
// working directory), binds environment overrides and configures logging.
//
// Unit tests may initialize the server multiple times; repeated calls
// re-apply defaults but do not duplicate global logging setup.
func InitConfig(cfgFile string) error {
	setDefaults()

	viper.SetEnvPrefix("SEVENZIP_ONLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range param.AllParameterNames() {
		_ = viper.BindEnv(key)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "Failed to read config file %s", cfgFile)
		}
	} else {
		viper.SetConfigName("sevenzip-online")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("/etc/sevenzip-online")
		viper.AddConfigPath(".")
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return errors.Wrap(err, "Failed to read config file")
			}
		}
	}

	if err := setLogging(param.Logging_Level.GetString()); err != nil {
		return err
	}

	initialized.Store(true)
	return nil
}

// IsInitialized reports whether InitConfig has completed at least once.
func IsInitialized() bool {
	return initialized.Load()
}

func setDefaults() {
	viper.SetDefault(param.Server_Port.GetName(), 3000)
	viper.SetDefault(param.Server_BaseUrl.GetName(), "/api")
	viper.SetDefault(param.Server_ShutdownTimeout.GetName(), 3*time.Second)
	viper.SetDefault(param.Server_DbLocation.GetName(), defaultDbLocation())
	viper.SetDefault(param.Logging_Level.GetName(), "info")
	viper.SetDefault(param.Auth_AccessTokenLifetime.GetName(), 30*time.Minute)
	viper.SetDefault(param.Auth_RefreshTokenLifetime.GetName(), 720*time.Hour)
	viper.SetDefault(param.Archive_UploadDir.GetName(), defaultUploadDir())
	viper.SetDefault(param.Archive_FileSizeLimit.GetName(), int64(2)<<30)
	viper.SetDefault(param.Archive_SevenZipPath.GetName(), "")
	viper.SetDefault(param.Archive_StageTimeout.GetName(), time.Hour)
	viper.SetDefault(param.Archive_CleanupDelay.GetName(), 20*time.Minute)
}

func defaultUploadDir() string {
	wd, err := os.Getwd()
	if err != nil {
		log.Warnln("Unable to determine working directory for upload dir default:", err)
		return "uploads"
	}
	return filepath.Join(wd, "uploads")
}

func defaultDbLocation() string {
	wd, err := os.Getwd()
	if err != nil {
		return "sevenzip-online.sqlite"
	}
	return filepath.Join(wd, "sevenzip-online.sqlite")
}
