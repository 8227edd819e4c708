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
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var (
	progressPattern = regexp.MustCompile(`(\d{1,3})%`)
	resolvedBin     atomic.Pointer[string]
)

// SevenZipRunner drives a 7-Zip binary ("7z a ...") as a subprocess and
// translates its progress output into the Runner event stream.
type SevenZipRunner struct {
	// Bin overrides the 7-Zip binary location; when empty the runner
	// looks up 7z, then 7za, on PATH.
	Bin string
}

func (r *SevenZipRunner) binary() (string, error) {
	if r.Bin != "" {
		return r.Bin, nil
	}
	if cached := resolvedBin.Load(); cached != nil {
		return *cached, nil
	}
	for _, name := range []string{"7z", "7za"} {
		if path, err := exec.LookPath(name); err == nil {
			resolvedBin.Store(&path)
			return path, nil
		}
	}
	return "", errors.New("no 7-Zip binary (7z or 7za) found on PATH")
}

// Run launches the subprocess and returns its ordered event stream. The
// stream carries zero or more progress events followed by exactly one
// terminal event; the channel is closed afterwards. Canceling ctx kills
// the subprocess, which surfaces as a failure event.
func (r *SevenZipRunner) Run(ctx context.Context, spec RunSpec) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		if err := r.run(ctx, spec, events); err != nil {
			events <- Event{Kind: EventFailed, Err: err}
			return
		}
		events <- Event{Kind: EventProgress, Percent: 100}
		events <- Event{Kind: EventSucceeded}
	}()
	return events
}

func (r *SevenZipRunner) run(ctx context.Context, spec RunSpec, events chan<- Event) error {
	bin, err := r.binary()
	if err != nil {
		return err
	}

	// -bsp1 routes the progress indicator to stdout, -bso1 keeps the
	// rest of the chatter there too, -y suppresses interactive prompts.
	args := []string{"a", "-y", "-bsp1", "-bso1", spec.Destination, spec.Source}
	if spec.Password != "" {
		args = append(args, "-p"+spec.Password)
	}
	if spec.HeaderEncryption {
		args = append(args, "-mhe=on")
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmdStdout, err := cmd.StdoutPipe()
	if err != nil {
		return errors.Wrap(err, "failed to open stdout pipe to 7-Zip")
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	procLog := log.WithFields(log.Fields{"component": "7zip", "destination": spec.Destination})
	procLog.Debugln("Launching:", bin, "a", spec.Destination)

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start 7-Zip")
	}

	// 7-Zip redraws its progress indicator with carriage returns, so
	// the scanner splits on both CR and LF.
	scanner := bufio.NewScanner(cmdStdout)
	scanner.Split(scanCRLFLines)
	lastPercent := -1
	for scanner.Scan() {
		line := scanner.Text()
		if match := progressPattern.FindStringSubmatch(line); match != nil {
			percent, convErr := strconv.Atoi(match[1])
			if convErr != nil || percent <= lastPercent {
				continue
			}
			lastPercent = percent
			events <- Event{Kind: EventProgress, Percent: float64(percent)}
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "7-Zip process terminated")
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		procLog.Debugln("7-Zip exited with failure:", detail)
		return errors.Errorf("7-Zip failed: %s", detail)
	}
	return nil
}

// scanCRLFLines is a bufio.SplitFunc that treats both carriage returns
// and newlines as line terminators.
func scanCRLFLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
