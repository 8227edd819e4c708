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
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/try-catch-f1nally/7zip-online/database"
	"github.com/try-catch-f1nally/7zip-online/param"
	"github.com/try-catch-f1nally/7zip-online/token"
)

const refreshCookieName = "refreshToken"

type (
	Credentials struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=8"`
	}

	UserDataRes struct {
		UserId       string `json:"userId"`
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
)

// AuthHandler requires a valid Bearer access token and stores the
// authenticated user id in the request context under "User".
func AuthHandler(ctx *gin.Context) {
	header := ctx.Request.Header.Get("Authorization")
	serialized, found := strings.CutPrefix(header, "Bearer ")
	if !found || serialized == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token is missing"})
		return
	}
	userID, err := token.Verify(serialized, token.Access)
	if err != nil {
		log.Debugln("Rejected access token:", err)
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid access token"})
		return
	}
	ctx.Set("User", userID)
	ctx.Next()
}

func registerHandler(ctx *gin.Context) {
	creds := Credentials{}
	if err := ctx.ShouldBindJSON(&creds); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect registration data"})
		return
	}
	user, err := database.CreateUser(database.ServerDatabase, creds.Email, creds.Password)
	if err != nil {
		if err == database.ErrUserExists {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User with such email already exist"})
		} else {
			log.Errorln("Failed to register user:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		}
		return
	}
	issueTokens(ctx, user.ID, http.StatusCreated)
}

func loginHandler(ctx *gin.Context) {
	creds := Credentials{}
	if err := ctx.ShouldBindJSON(&creds); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect login data"})
		return
	}
	user, err := database.VerifyUser(database.ServerDatabase, creds.Email, creds.Password)
	if err != nil {
		if err == database.ErrWrongPassword {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect email or password"})
		} else {
			log.Errorln("Failed to log in user:", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		}
		return
	}
	issueTokens(ctx, user.ID, http.StatusOK)
}

func logoutHandler(ctx *gin.Context) {
	refresh, err := ctx.Cookie(refreshCookieName)
	if err != nil || refresh == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token is missing"})
		return
	}
	clearRefreshCookie(ctx)
	if err := database.DeleteRefreshToken(database.ServerDatabase, refresh); err != nil {
		log.Errorln("Failed to revoke refresh token:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		return
	}
	ctx.Status(http.StatusOK)
}

func refreshHandler(ctx *gin.Context) {
	refresh, err := ctx.Cookie(refreshCookieName)
	if err != nil || refresh == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token is missing"})
		return
	}
	userID, err := token.Verify(refresh, token.Refresh)
	if err != nil {
		log.Debugln("Rejected refresh token:", err)
		clearRefreshCookie(ctx)
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	// A signature-valid token that is absent from the database has been
	// revoked by logout or rotated away already.
	if _, err := database.GetRefreshToken(database.ServerDatabase, refresh); err != nil {
		clearRefreshCookie(ctx)
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}
	if err := database.DeleteRefreshToken(database.ServerDatabase, refresh); err != nil {
		log.Errorln("Failed to rotate refresh token:", err)
	}
	issueTokens(ctx, userID, http.StatusOK)
}

func issueTokens(ctx *gin.Context, userID string, status int) {
	pair, err := token.CreatePair(userID)
	if err != nil {
		log.Errorln("Failed to create token pair:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		return
	}
	expiresAt := time.Now().Add(token.RefreshLifetime())
	if err := database.SaveRefreshToken(database.ServerDatabase, userID, pair.RefreshToken, expiresAt); err != nil {
		log.Errorln("Failed to save refresh token:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
		return
	}
	setRefreshCookie(ctx, pair.RefreshToken)
	ctx.JSON(status, UserDataRes{UserId: userID, AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func setRefreshCookie(ctx *gin.Context, tok string) {
	maxAge := int(token.RefreshLifetime() / time.Second)
	ctx.SetCookie(refreshCookieName, tok, maxAge, authCookiePath(), "", false, true)
}

func clearRefreshCookie(ctx *gin.Context) {
	ctx.SetCookie(refreshCookieName, "", -1, authCookiePath(), "", false, true)
}

func authCookiePath() string {
	return param.Server_BaseUrl.GetString() + "/auth"
}

func configureAuthEndpoints(router gin.IRouter) {
	group := router.Group("/auth")
	group.POST("/register", registerHandler)
	group.POST("/login", loginHandler)
	group.POST("/logout", logoutHandler)
	group.POST("/refresh", refreshHandler)
}
