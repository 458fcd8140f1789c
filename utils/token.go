package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/mmdatafocus/itefm_backend/config"
	"github.com/sirupsen/logrus"
)

type JwtCustomClaim struct {
	Username  string `json:"username"`
	SessionId string `json:"sid"`
	jwt.StandardClaims
}

var (
	jwtSecret     []byte
	jwtSecretOnce sync.Once
)

// API_SECRET signs session tokens. Without it a random secret is generated,
// so tokens do not survive a restart.
func getJwtSecret() []byte {
	jwtSecretOnce.Do(func() {
		if secret := os.Getenv("API_SECRET"); secret != "" {
			jwtSecret = []byte(secret)
			return
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		jwtSecret = []byte(hex.EncodeToString(buf))
		config.GetLogger().WithFields(logrus.Fields{"field": "jwt"}).Warn("API_SECRET not set; using a per-process secret")
	})
	return jwtSecret
}

func JwtGenerate(username string, sessionId string, lifespan time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, &JwtCustomClaim{
		Username:  username,
		SessionId: sessionId,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(lifespan).Unix(),
			IssuedAt:  now.Unix(),
		},
	})

	token, err := t.SignedString(getJwtSecret())
	if err != nil {
		return "", err
	}

	return token, nil
}

func JwtValidate(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &JwtCustomClaim{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("there's a problem with the signing method")
		}
		return getJwtSecret(), nil
	})
}
