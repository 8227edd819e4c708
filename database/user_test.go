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
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	mockDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, mockDB.AutoMigrate(&User{}, &RefreshToken{}))
	return mockDB
}

func TestCreateAndVerifyUser(t *testing.T) {
	db := setupTestDB(t)

	user, err := CreateUser(db, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.HashedPassword, "password must be stored hashed")

	verified, err := VerifyUser(db, "alice@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	_, err = VerifyUser(db, "alice@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = VerifyUser(db, "nobody@example.com", "anything")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	_, err := CreateUser(db, "alice@example.com", "password one")
	require.NoError(t, err)
	_, err = CreateUser(db, "alice@example.com", "password two")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUpdateUserEmail(t *testing.T) {
	db := setupTestDB(t)
	alice, err := CreateUser(db, "alice@example.com", "password one")
	require.NoError(t, err)
	_, err = CreateUser(db, "bob@example.com", "password two")
	require.NoError(t, err)

	require.NoError(t, UpdateUserEmail(db, alice.ID, "alice2@example.com"))
	updated, err := GetUserByID(db, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2@example.com", updated.Email)

	assert.ErrorIs(t, UpdateUserEmail(db, alice.ID, "bob@example.com"), ErrUserExists)
	assert.ErrorIs(t, UpdateUserEmail(db, "missing-id", "new@example.com"), ErrUserNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	db := setupTestDB(t)
	alice, err := CreateUser(db, "alice@example.com", "old password")
	require.NoError(t, err)

	assert.ErrorIs(t, UpdateUserPassword(db, alice.ID, "not the old one", "new password"), ErrWrongOldPasword)

	require.NoError(t, UpdateUserPassword(db, alice.ID, "old password", "new password"))
	_, err = VerifyUser(db, "alice@example.com", "new password")
	assert.NoError(t, err)
	_, err = VerifyUser(db, "alice@example.com", "old password")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, SaveRefreshToken(db, "user-1", "tok-1", time.Now().Add(time.Hour)))
	record, err := GetRefreshToken(db, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", record.UserID)

	require.NoError(t, DeleteRefreshToken(db, "tok-1"))
	_, err = GetRefreshToken(db, "tok-1")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	// Deleting an already-revoked token is not an error.
	assert.NoError(t, DeleteRefreshToken(db, "tok-1"))
}

func TestExpiredRefreshTokenIsTreatedAsAbsent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveRefreshToken(db, "user-1", "tok-old", time.Now().Add(-time.Minute)))
	_, err := GetRefreshToken(db, "tok-old")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestPruneExpiredTokens(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, SaveRefreshToken(db, "user-1", "tok-old", time.Now().Add(-time.Minute)))
	require.NoError(t, SaveRefreshToken(db, "user-1", "tok-new", time.Now().Add(time.Hour)))

	require.NoError(t, PruneExpiredTokens(db))

	var count int64
	require.NoError(t, db.Model(&RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
