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

// Package param provides typed accessors for the server's viper-backed
// configuration keys. Every key the server reads is declared here so the
// config package can iterate over them when binding environment variables.
package param

import (
	"time"

	"github.com/spf13/viper"
)

type (
	StringParam struct {
		name string
	}

	IntParam struct {
		name string
	}

	Int64Param struct {
		name string
	}

	DurationParam struct {
		name string
	}
)

func (p StringParam) GetName() string {
	return p.name
}

func (p StringParam) GetString() string {
	return viper.GetString(p.name)
}

func (p IntParam) GetName() string {
	return p.name
}

func (p IntParam) GetInt() int {
	return viper.GetInt(p.name)
}

func (p Int64Param) GetName() string {
	return p.name
}

func (p Int64Param) GetInt64() int64 {
	return viper.GetInt64(p.name)
}

func (p DurationParam) GetName() string {
	return p.name
}

func (p DurationParam) GetDuration() time.Duration {
	return viper.GetDuration(p.name)
}

var (
	Server_Port            = IntParam{"Server.Port"}
	Server_BaseUrl         = StringParam{"Server.BaseUrl"}
	Server_ShutdownTimeout = DurationParam{"Server.ShutdownTimeout"}
	Server_DbLocation      = StringParam{"Server.DbLocation"}

	Logging_Level = StringParam{"Logging.Level"}

	Auth_AccessSecret         = StringParam{"Auth.AccessSecret"}
	Auth_RefreshSecret        = StringParam{"Auth.RefreshSecret"}
	Auth_AccessTokenLifetime  = DurationParam{"Auth.AccessTokenLifetime"}
	Auth_RefreshTokenLifetime = DurationParam{"Auth.RefreshTokenLifetime"}

	Archive_UploadDir     = StringParam{"Archive.UploadDir"}
	Archive_FileSizeLimit = Int64Param{"Archive.FileSizeLimit"}
	Archive_SevenZipPath  = StringParam{"Archive.SevenZipPath"}
	Archive_StageTimeout  = DurationParam{"Archive.StageTimeout"}
	Archive_CleanupDelay  = DurationParam{"Archive.CleanupDelay"}
)

// AllParameterNames lists every config key known to the server; used by
// config.InitConfig to bind environment-variable overrides.
func AllParameterNames() []string {
	return []string{
		Server_Port.name,
		Server_BaseUrl.name,
		Server_ShutdownTimeout.name,
		Server_DbLocation.name,
		Logging_Level.name,
		Auth_AccessSecret.name,
		Auth_RefreshSecret.name,
		Auth_AccessTokenLifetime.name,
		Auth_RefreshTokenLifetime.name,
		Archive_UploadDir.name,
		Archive_FileSizeLimit.name,
		Archive_SevenZipPath.name,
		Archive_StageTimeout.name,
		Archive_CleanupDelay.name,
	}
}
