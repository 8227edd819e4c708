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

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/try-catch-f1nally/7zip-online/database"
)

type (
	ChangeEmailReq struct {
		Email string `json:"email" binding:"required,email"`
	}

	ChangePasswordReq struct {
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=8"`
	}
)

func changeEmailHandler(ctx *gin.Context) {
	req := ChangeEmailReq{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect email"})
		return
	}
	user := ctx.GetString("User")
	switch err := database.UpdateUserEmail(database.ServerDatabase, user, req.Email); err {
	case nil:
		ctx.Status(http.StatusOK)
	case database.ErrUserExists:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User with such email already exist"})
	case database.ErrUserNotFound:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User with such userId not found"})
	default:
		log.Errorln("Failed to change email:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
	}
}

func changePasswordHandler(ctx *gin.Context) {
	req := ChangePasswordReq{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect password change request"})
		return
	}
	user := ctx.GetString("User")
	switch err := database.UpdateUserPassword(database.ServerDatabase, user, req.OldPassword, req.NewPassword); err {
	case nil:
		ctx.Status(http.StatusOK)
	case database.ErrWrongOldPasword:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Incorrect old password"})
	case database.ErrUserNotFound:
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User with such userId not found"})
	default:
		log.Errorln("Failed to change password:", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong, please try again later"})
	}
}

func configureUserEndpoints(router gin.IRouter) {
	group := router.Group("/users", AuthHandler)
	group.PATCH("/email", changeEmailHandler)
	group.PATCH("/password", changePasswordHandler)
}
