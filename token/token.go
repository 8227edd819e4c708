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

// Package token mints and verifies the access/refresh JWT pair used to
// authenticate API requests. Access and refresh tokens are signed with
// distinct HS256 secrets and carry the user id as the subject claim.
package token

import (
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/pkg/errors"

	"github.com/try-catch-f1nally/7zip-online/param"
)

type Kind string

const (
	Access  Kind = "access"
	Refresh Kind = "refresh"
)

// Pair is the result of a successful login, registration or refresh.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// CreatePair mints a fresh access/refresh token pair for the user.
func CreatePair(userID string) (Pair, error) {
	access, err := create(userID, Access)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := create(userID, Refresh)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

func create(userID string, kind Kind) (string, error) {
	secret, lifetime, err := signingParams(kind)
	if err != nil {
		return "", err
	}
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Subject(userID).
		IssuedAt(now).
		Expiration(now.Add(lifetime)).
		Build()
	if err != nil {
		return "", errors.Wrapf(err, "Failed to build %s token", kind)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", errors.Wrapf(err, "Failed to sign %s token", kind)
	}
	return string(signed), nil
}

// Verify parses and validates a token of the given kind and returns the
// user id it was minted for.
func Verify(serialized string, kind Kind) (string, error) {
	secret, _, err := signingParams(kind)
	if err != nil {
		return "", err
	}
	tok, err := jwt.Parse([]byte(serialized), jwt.WithKey(jwa.HS256, secret), jwt.WithValidate(true))
	if err != nil {
		return "", errors.Wrapf(err, "Invalid %s token", kind)
	}
	if tok.Subject() == "" {
		return "", errors.Errorf("%s token carries no subject", kind)
	}
	return tok.Subject(), nil
}

// RefreshLifetime exposes the configured refresh token lifetime, used
// for the refresh cookie's max age and the stored token's expiry.
func RefreshLifetime() time.Duration {
	return param.Auth_RefreshTokenLifetime.GetDuration()
}

func signingParams(kind Kind) ([]byte, time.Duration, error) {
	var secret string
	var lifetime time.Duration
	switch kind {
	case Access:
		secret = param.Auth_AccessSecret.GetString()
		lifetime = param.Auth_AccessTokenLifetime.GetDuration()
	case Refresh:
		secret = param.Auth_RefreshSecret.GetString()
		lifetime = param.Auth_RefreshTokenLifetime.GetDuration()
	default:
		return nil, 0, errors.Errorf("unknown token kind %q", kind)
	}
	if secret == "" {
		return nil, 0, errors.Errorf("Auth.%sSecret is not configured", capitalized(kind))
	}
	return []byte(secret), lifetime, nil
}

func capitalized(kind Kind) string {
	if kind == Access {
		return "Access"
	}
	return "Refresh"
}
