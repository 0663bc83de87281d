// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

package stubserver

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// sessionClaims is the payload embedded inside a stub-issued session token.
// Carrying the user id and nickname in the token lets the stub reconstruct
// the caller without a lookup on every request.
type sessionClaims struct {
	jwt.RegisteredClaims

	UserID   int64  `json:"uid"`
	Nickname string `json:"nick"`
}

// tokenService issues and verifies HS256 session tokens. The signing secret
// is generated at construction, so tokens never survive a stub restart —
// matching the ephemeral in-memory state.
type tokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func newTokenService(issuer string, ttl time.Duration) *tokenService {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(fmt.Sprintf("stubserver: cannot generate signing secret: %v", err))
	}
	return &tokenService{secret: secret, issuer: issuer, ttl: ttl}
}

// Issue creates a signed session token for a user.
func (service *tokenService) Issue(userID int64, nickname string) (string, error) {
	currentTime := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(service.ttl)),
		},
		UserID:   userID,
		Nickname: nickname,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("stubserver: token_sign_failed: %w", err)
	}
	return signedToken, nil
}

// Verify checks the signature and validity of a session token string.
func (service *tokenService) Verify(tokenString string) (*sessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("stubserver: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("stubserver: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("stubserver: invalid token claims")
	}
	return claims, nil
}

// hashPassword hashes a plain-text password using the bcrypt algorithm.
func hashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("stubserver: password_hash_failed: %w", err)
	}
	return string(hashedBytes), nil
}

// checkPasswordHash compares a plain-text password with its hashed version.
func checkPasswordHash(plainTextPassword, existingHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword)) == nil
}
