package jwt

import (
	"testing"
	"time"

	"onair/backend/config"
)

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-at-least-16-chars",
		AccessTokenTTL: ttl,
	})
}

func TestGenerateAndParseToken(t *testing.T) {
	m := newTestManager(time.Hour)

	token, err := m.GenerateToken("user-1", "admin")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("解析 Token 失败: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("期望 user_id=user-1，实际=%s", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("期望 role=admin，实际=%s", claims.Role)
	}
	if claims.ID == "" {
		t.Error("JWT ID 不应为空")
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager(-time.Minute) // 已过期

	token, err := m.GenerateToken("user-1", "editor")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	if _, err := m.ParseToken(token); err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际=%v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager(time.Hour)
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-16-chars!",
		AccessTokenTTL: time.Hour,
	})

	token, err := m1.GenerateToken("user-1", "editor")
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	if _, err := m2.ParseToken(token); err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际=%v", err)
	}
}
