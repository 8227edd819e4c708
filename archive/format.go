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
	"strings"

	"github.com/pkg/errors"
)

// ErrUnsupportedFormat indicates a format token outside the supported set.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Format is a parsed archive format token. A dotted token such as
// "tar.gz" splits into the container ("tar") and the compressor ("gz");
// a bare token such as "zip" has no compressor and yields a
// single-stage job.
type Format struct {
	Container  string
	Compressor string
}

var supportedFormats = map[string]struct{}{
	"zip":     {},
	"7z":      {},
	"wim":     {},
	"tar":     {},
	"tar.gz":  {},
	"tar.xz":  {},
	"tar.bz2": {},
}

// ParseFormat validates a requested format token and splits it into its
// container and optional compressor parts.
func ParseFormat(token string) (Format, error) {
	if _, ok := supportedFormats[token]; !ok {
		return Format{}, errors.Wrapf(ErrUnsupportedFormat, "format %q", token)
	}
	container, compressor, _ := strings.Cut(token, ".")
	return Format{Container: container, Compressor: compressor}, nil
}

// TwoStage reports whether the format requires a second compression
// stage on top of the container stage.
func (f Format) TwoStage() bool {
	return f.Compressor != ""
}

func (f Format) String() string {
	if f.Compressor == "" {
		return f.Container
	}
	return f.Container + "." + f.Compressor
}

// SupportedFormats returns the accepted format tokens, for error
// messages and request validation.
func SupportedFormats() []string {
	return []string{"zip", "7z", "wim", "tar", "tar.gz", "tar.xz", "tar.bz2"}
}
