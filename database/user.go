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

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists      = errors.New("user with such email already exist")
	ErrUserNotFound    = errors.New("user with such userId not found")
	ErrWrongPassword   = errors.New("incorrect password")
	ErrWrongOldPasword = errors.New("incorrect old password")
)

type User struct {
	ID             string `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex;not null"`
	HashedPassword string `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateUser registers a new user with a bcrypt-hashed password.
func CreateUser(db *gorm.DB, email, password string) (*User, error) {
	var existing User
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "failed to check for existing user")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash the password")
	}
	user := User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, errors.Wrap(err, "failed to create the user")
	}
	return &user, nil
}

// VerifyUser checks the email/password pair and returns the matching
// user. Both an unknown email and a wrong password yield
// ErrWrongPassword so login failures do not reveal which part was bad.
func VerifyUser(db *gorm.DB, email, password string) (*User, error) {
	var user User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWrongPassword
		}
		return nil, errors.Wrap(err, "failed to look up the user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}
	return &user, nil
}

func GetUserByID(db *gorm.DB, userID string) (*User, error) {
	var user User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to look up the user")
	}
	return &user, nil
}

// UpdateUserEmail changes the user's email, rejecting addresses already
// registered to another account.
func UpdateUserEmail(db *gorm.DB, userID, email string) error {
	var existing User
	err := db.First(&existing, "email = ?", email).Error
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(err, "failed to check for existing user")
	}

	result := db.Model(&User{}).Where("id = ?", userID).Update("email", email)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update the email")
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserPassword changes the user's password after verifying the
// old one.
func UpdateUserPassword(db *gorm.DB, userID, oldPassword, newPassword string) error {
	user, err := GetUserByID(db, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(oldPassword)) != nil {
		return ErrWrongOldPasword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "failed to hash the new password")
	}
	if err := db.Model(user).Update("hashed_password", string(hashed)).Error; err != nil {
		return errors.Wrap(err, "failed to update the password")
	}
	return nil
}
