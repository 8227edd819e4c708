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

package database

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("refresh token not found")

// RefreshToken is a server-side record of an issued refresh token. A
// token absent from this table has been revoked (or was never issued)
// and cannot be exchanged, even if its signature still validates.
type RefreshToken struct {
	Token     string `gorm:"primaryKey"`
	UserID    string `gorm:"index;not null"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SaveRefreshToken records a newly issued refresh token.
func SaveRefreshToken(db *gorm.DB, userID, tok string, expiresAt time.Time) error {
	record := RefreshToken{Token: tok, UserID: userID, ExpiresAt: expiresAt}
	if err := db.Create(&record).Error; err != nil {
		return errors.Wrap(err, "failed to save the refresh token")
	}
	return nil
}

// GetRefreshToken looks up an issued refresh token; expired rows are
// treated as absent.
func GetRefreshToken(db *gorm.DB, tok string) (*RefreshToken, error) {
	var record RefreshToken
	if err := db.First(&record, "token = ?", tok).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, errors.Wrap(err, "failed to look up the refresh token")
	}
	if time.Now().After(record.ExpiresAt) {
		_ = db.Delete(&record).Error
		return nil, ErrTokenNotFound
	}
	return &record, nil
}

// DeleteRefreshToken revokes an issued refresh token. Deleting an
// unknown token is not an error.
func DeleteRefreshToken(db *gorm.DB, tok string) error {
	if err := db.Delete(&RefreshToken{}, "token = ?", tok).Error; err != nil {
		return errors.Wrap(err, "failed to delete the refresh token")
	}
	return nil
}

// PruneExpiredTokens removes expired rows; run periodically by the
// server.
func PruneExpiredTokens(db *gorm.DB) error {
	if err := db.Delete(&RefreshToken{}, "expires_at < ?", time.Now()).Error; err != nil {
		return errors.Wrap(err, "failed to prune expired refresh tokens")
	}
	return nil
}
