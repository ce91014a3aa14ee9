package util

import (
	"errors"
	"log/slog"

	"github.com/golang-jwt/jwt"
)

const (
	ClaimRoleHost   = "HOST"
	ClaimRoleViewer = "VIEWER"
)

func parseToken(secret string, tokenString string) (jwt.MapClaims, bool) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		slog.Warn("トークンの検証に失敗しました", "error", err)
		return nil, false
	}
	if !token.Valid {
		slog.Warn("トークンの有効期限が切れています")
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		slog.Warn("クレームの取得に失敗しました")
		return nil, false
	}
	return claims, true
}

// IsValidHostToken accepts tokens allowed to drive the match.
func IsValidHostToken(secret string, tokenString string) bool {
	claims, ok := parseToken(secret, tokenString)
	if !ok {
		return false
	}
	return claims["role"] == ClaimRoleHost
}

// IsValidViewer accepts tokens allowed to watch the realtime feed.
func IsValidViewer(secret string, tokenString string) bool {
	claims, ok := parseToken(secret, tokenString)
	if !ok {
		return false
	}
	return claims["role"] == ClaimRoleHost || claims["role"] == ClaimRoleViewer
}
