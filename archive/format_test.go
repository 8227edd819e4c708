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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		token      string
		container  string
		compressor string
		twoStage   bool
	}{
		{"zip", "zip", "", false},
		{"7z", "7z", "", false},
		{"wim", "wim", "", false},
		{"tar", "tar", "", false},
		{"tar.gz", "tar", "gz", true},
		{"tar.xz", "tar", "xz", true},
		{"tar.bz2", "tar", "bz2", true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			format, err := ParseFormat(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.container, format.Container)
			assert.Equal(t, tt.compressor, format.Compressor)
			assert.Equal(t, tt.twoStage, format.TwoStage())
			assert.Equal(t, tt.token, format.String())
		})
	}
}

func TestParseFormatRejectsUnknownTokens(t *testing.T) {
	for _, token := range []string{"", "rar", "tar.lz4", "zip.gz", "TAR.GZ", "../evil"} {
		_, err := ParseFormat(token)
		assert.ErrorIs(t, err, ErrUnsupportedFormat, "token %q", token)
	}
}
