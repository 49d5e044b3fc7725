package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// newAuthRouter はミドルウェアを適用したテスト用ルーターを生成する。
// ハンドラはコンテキストのuser_idとroleをJSONで返す。
func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	return router
}

// serve はAuthorizationヘッダー付きでGETリクエストを実行する。
func serve(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestGenerateJWT はGenerateJWT関数を検証する。
func TestGenerateJWT(t *testing.T) {
	t.Parallel()

	t.Run("クレームにユーザー情報とロールが含まれること", func(t *testing.T) {
		t.Parallel()

		before := time.Now()
		tokenStr, err := GenerateJWT(testSecret, "user-123", "admin@example.com", RoleAdmin)
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}

		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(_ *jwt.Token) (any, error) {
			return []byte(testSecret), nil
		})
		if err != nil || !token.Valid {
			t.Fatalf("トークンのパースに失敗: %v", err)
		}

		if claims.UserID != "user-123" {
			t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
		}
		if claims.Role != RoleAdmin {
			t.Errorf("Role = %q, want %q", claims.Role, RoleAdmin)
		}
		if claims.Issuer != "gengkubur" {
			t.Errorf("Issuer = %q, want gengkubur", claims.Issuer)
		}
		expectedExpiry := before.Add(24 * time.Hour)
		if claims.ExpiresAt.Time.Before(expectedExpiry.Add(-1 * time.Minute)) {
			t.Errorf("ExpiresAt = %v, 期待する最小値: %v", claims.ExpiresAt.Time, expectedExpiry.Add(-1*time.Minute))
		}
	})

	t.Run("異なるシークレットでは検証に失敗すること", func(t *testing.T) {
		t.Parallel()

		tokenStr, err := GenerateJWT(testSecret, "user-wrong", "wrong@example.com", "")
		if err != nil {
			t.Fatalf("GenerateJWT()でエラーが発生: %v", err)
		}
		_, err = jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(_ *jwt.Token) (any, error) {
			return []byte("wrong-secret"), nil
		})
		if err == nil {
			t.Fatal("異なるシークレットでの検証がエラーを返すべき")
		}
	})
}

// TestJWTAuth はJWTAuthミドルウェアを検証する。
func TestJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("有効なトークンでユーザーIDとX-User-IDヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, _ := GenerateJWT(testSecret, "user-ok", "ok@example.com", "")
		w := serve(newAuthRouter(JWTAuth(testSecret)), "Bearer "+tokenStr)

		if w.Code != http.StatusOK {
			t.Fatalf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("X-User-ID"); got != "user-ok" {
			t.Errorf("X-User-ID = %q, want user-ok", got)
		}
	})

	t.Run("ヘッダーが無い場合・形式不正・署名不正はいずれも401になること", func(t *testing.T) {
		t.Parallel()

		wrong, _ := GenerateJWT("other-secret", "user", "u@example.com", "")
		router := newAuthRouter(JWTAuth(testSecret))
		for _, header := range []string{"", "Token abc", "Bearer invalid.token", "Bearer " + wrong} {
			if w := serve(router, header); w.Code != http.StatusUnauthorized {
				t.Errorf("header=%q: ステータスコード = %d, want 401", header, w.Code)
			}
		}
	})

	t.Run("期限切れトークンで401が返ること", func(t *testing.T) {
		t.Parallel()

		claims := JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			},
			UserID: "user-expired",
		}
		tokenStr, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if w := serve(newAuthRouter(JWTAuth(testSecret)), "Bearer "+tokenStr); w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want 401", w.Code)
		}
	})
}

// TestOptionalJWTAuth はOptionalJWTAuthミドルウェアを検証する。
func TestOptionalJWTAuth(t *testing.T) {
	t.Parallel()

	t.Run("トークンが無い場合は匿名として通過すること", func(t *testing.T) {
		t.Parallel()

		w := serve(newAuthRouter(OptionalJWTAuth(testSecret)), "")
		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want 200", w.Code)
		}
		if got := w.Header().Get("X-User-ID"); got != "" {
			t.Errorf("X-User-ID = %q, want empty", got)
		}
	})

	t.Run("有効なトークンの場合はユーザーIDが設定されること", func(t *testing.T) {
		t.Parallel()

		tokenStr, _ := GenerateJWT(testSecret, "user-opt", "opt@example.com", "")
		w := serve(newAuthRouter(OptionalJWTAuth(testSecret)), "Bearer "+tokenStr)
		if got := w.Header().Get("X-User-ID"); got != "user-opt" {
			t.Errorf("X-User-ID = %q, want user-opt", got)
		}
	})

	t.Run("無効なトークンは401になること", func(t *testing.T) {
		t.Parallel()

		if w := serve(newAuthRouter(OptionalJWTAuth(testSecret)), "Bearer broken"); w.Code != http.StatusUnauthorized {
			t.Errorf("ステータスコード = %d, want 401", w.Code)
		}
	})
}

// TestRequireRole はRequireRoleミドルウェアを検証する。
func TestRequireRole(t *testing.T) {
	t.Parallel()

	router := newAuthRouter(JWTAuth(testSecret), RequireRole(RoleAdmin))

	admin, _ := GenerateJWT(testSecret, "admin-1", "admin@example.com", RoleAdmin)
	if w := serve(router, "Bearer "+admin); w.Code != http.StatusOK {
		t.Errorf("管理者: ステータスコード = %d, want 200", w.Code)
	}

	customer, _ := GenerateJWT(testSecret, "user-1", "user@example.com", "")
	if w := serve(router, "Bearer "+customer); w.Code != http.StatusForbidden {
		t.Errorf("一般ユーザー: ステータスコード = %d, want 403", w.Code)
	}
}

// TestGetUserID はGetUserID関数を検証する。
func TestGetUserID(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if got := GetUserID(c); got != "" {
		t.Errorf("未設定: got %q", got)
	}
	c.Set("user_id", 123)
	if got := GetUserID(c); got != "" {
		t.Errorf("文字列以外: got %q", got)
	}
	c.Set("user_id", "user-1")
	if got := GetUserID(c); got != "user-1" {
		t.Errorf("got %q, want user-1", got)
	}
}
