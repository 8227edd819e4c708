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
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "sevenzip-online",
		Short: "Archive files online with 7-Zip",
		Long: `sevenzip-online runs a web service that lets authenticated
users upload files, combine them into an archive of their chosen format
(optionally compressed and password-protected), poll the archiving
progress, and download the result.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/sevenzip-online/sevenzip-online.yaml)")
	rootCmd.AddCommand(serveCmd)
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		log.Errorln("Fatal error occurred at the start of the program:", err)
	}
	return err
}
