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

package web_api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/try-catch-f1nally/7zip-online/archive"
	"github.com/try-catch-f1nally/7zip-online/database"
	"github.com/try-catch-f1nally/7zip-online/param"
)

func setupTestConfig(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set(param.Server_BaseUrl.GetName(), "/api")
	viper.Set(param.Auth_AccessSecret.GetName(), "access-test-secret")
	viper.Set(param.Auth_RefreshSecret.GetName(), "refresh-test-secret")
	viper.Set(param.Auth_AccessTokenLifetime.GetName(), 30*time.Minute)
	viper.Set(param.Auth_RefreshTokenLifetime.GetName(), 720*time.Hour)
	viper.Set(param.Archive_FileSizeLimit.GetName(), int64(2)<<30)
}

func setupTestDatabase(t *testing.T) {
	t.Helper()
	mockDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, mockDB.AutoMigrate(&database.User{}, &database.RefreshToken{}))
	previous := database.ServerDatabase
	database.ServerDatabase = mockDB
	t.Cleanup(func() { database.ServerDatabase = previous })
}

func setupAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()
	setupTestConfig(t)
	setupTestDatabase(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	ConfigureServerWebAPI(router, &ArchiveAPI{
		Workspace: archive.NewWorkspace(t.TempDir()),
		Registry:  archive.NewRegistry(),
	})
	return router
}

func doJSONRequest(router *gin.Engine, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func refreshCookieFrom(t *testing.T, recorder *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == refreshCookieName {
			return cookie
		}
	}
	t.Fatal("no refresh token cookie in response")
	return nil
}

func TestRegisterAPI(t *testing.T) {
	router := setupAuthRouter(t)

	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	res := UserDataRes{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	assert.NotEmpty(t, res.UserId)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	cookie := refreshCookieFrom(t, recorder)
	assert.Equal(t, res.RefreshToken, cookie.Value)
	assert.Equal(t, "/api/auth", cookie.Path)
	assert.True(t, cookie.HttpOnly)

	// Same email again is rejected
	recorder = doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "already exist")
}

func TestRegisterAPIValidation(t *testing.T) {
	router := setupAuthRouter(t)

	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"not-an-email","password":"secret-password"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestLoginAPI(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSONRequest(router, "POST", "/api/auth/login", `{"email":"alice@example.com","password":"secret-password"}`)
	assert.Equal(t, http.StatusOK, recorder.Code)
	res := UserDataRes{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))
	assert.NotEmpty(t, res.AccessToken)

	recorder = doJSONRequest(router, "POST", "/api/auth/login", `{"email":"alice@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRefreshAPIRotatesToken(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	cookie := refreshCookieFrom(t, recorder)

	recorder = doJSONRequest(router, "POST", "/api/auth/refresh", "", cookie)
	require.Equal(t, http.StatusOK, recorder.Code)
	rotated := refreshCookieFrom(t, recorder)
	assert.NotEqual(t, cookie.Value, rotated.Value)

	// The old token was rotated away and can no longer be used
	recorder = doJSONRequest(router, "POST", "/api/auth/refresh", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = doJSONRequest(router, "POST", "/api/auth/refresh", "", rotated)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestRefreshAPIWithoutCookie(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "Refresh token is missing")
}

func TestLogoutAPIRevokesToken(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	cookie := refreshCookieFrom(t, recorder)

	recorder = doJSONRequest(router, "POST", "/api/auth/logout", "", cookie)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSONRequest(router, "POST", "/api/auth/refresh", "", cookie)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestChangeEmailAPI(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	res := UserDataRes{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))

	req, _ := http.NewRequest("PATCH", "/api/users/email", strings.NewReader(`{"email":"alice2@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	// The old email no longer logs in, the new one does
	loginRec := doJSONRequest(router, "POST", "/api/auth/login", `{"email":"alice@example.com","password":"secret-password"}`)
	assert.Equal(t, http.StatusBadRequest, loginRec.Code)
	loginRec = doJSONRequest(router, "POST", "/api/auth/login", `{"email":"alice2@example.com","password":"secret-password"}`)
	assert.Equal(t, http.StatusOK, loginRec.Code)
}

func TestChangePasswordAPI(t *testing.T) {
	router := setupAuthRouter(t)
	recorder := doJSONRequest(router, "POST", "/api/auth/register", `{"email":"alice@example.com","password":"secret-password"}`)
	require.Equal(t, http.StatusCreated, recorder.Code)
	res := UserDataRes{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &res))

	body := `{"oldPassword":"secret-password","newPassword":"brand-new-password"}`
	req, _ := http.NewRequest("PATCH", "/api/users/password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+res.AccessToken)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)

	loginRec := doJSONRequest(router, "POST", "/api/auth/login", `{"email":"alice@example.com","password":"brand-new-password"}`)
	assert.Equal(t, http.StatusOK, loginRec.Code)
}

func TestUserEndpointsRequireAuth(t *testing.T) {
	router := setupAuthRouter(t)
	req, _ := http.NewRequest("PATCH", "/api/users/email", strings.NewReader(`{"email":"x@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
