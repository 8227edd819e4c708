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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArchiveJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sevenzip_online_archive_jobs_total",
		Help: "Count of archiving jobs by terminal result",
	}, []string{"result"})

	ArchiveJobsRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sevenzip_online_archive_jobs_running",
		Help: "Number of archiving jobs currently running",
	})

	ArchiveDownloadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sevenzip_online_archive_downloads_total",
		Help: "Count of served archive downloads",
	})
)
