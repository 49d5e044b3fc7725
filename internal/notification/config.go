package notification

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

// Config は通知サービスの設定。
type Config struct {
	// Port はHTTPサーバーのリッスンポート。
	Port string
	// DatabasePath はSQLiteデータベースファイルのパス。
	DatabasePath string
	// JWTSecret はJWTの署名検証に使う秘密鍵。
	JWTSecret string
	// VAPID はプロセス全体で共有するVAPID鍵ペア。
	VAPID push.VAPIDKeys
	// AllowedOrigins はCORSで許可するフロントエンドのオリジン。
	AllowedOrigins []string
	// RedisAddr はRedisのアドレス。空の場合は単一インスタンスで動作する。
	RedisAddr string
	// PushConcurrency は同時に実行する配信数の上限。
	PushConcurrency int
	// PushBatchSize は購読一覧を1回に読み込む件数。
	PushBatchSize int
	// PushTTL はプッシュサービスがメッセージを保持する期間。
	PushTTL time.Duration
}

// LoadConfig は環境変数から設定を読み込む。
func LoadConfig() (Config, error) {
	concurrency, err := getEnvInt("PUSH_CONCURRENCY", 64)
	if err != nil {
		return Config{}, err
	}
	batchSize, err := getEnvInt("PUSH_BATCH_SIZE", 500)
	if err != nil {
		return Config{}, err
	}
	ttlSeconds, err := getEnvInt("PUSH_TTL_SECONDS", 24*60*60)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Port:         getEnvOr("PORT", "8086"),
		DatabasePath: getEnvOr("DATABASE_PATH", "/data/notification.db"),
		JWTSecret:    getEnvOr("JWT_SECRET", "dev-secret-key"),
		VAPID: push.VAPIDKeys{
			PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
			Subject:    getEnvOr("VAPID_SUBJECT", "mailto:admin@gengkubur.com"),
		},
		AllowedOrigins:  strings.Split(getEnvOr("FRONTEND_URL", "http://localhost:5173"), ","),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		PushConcurrency: concurrency,
		PushBatchSize:   batchSize,
		PushTTL:         time.Duration(ttlSeconds) * time.Second,
	}, nil
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

// getEnvInt は環境変数を正の整数として読み込む。未設定の場合はデフォルト値を返す。
func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("環境変数 %s は正の整数で指定してください: %q", key, v)
	}
	return n, nil
}
