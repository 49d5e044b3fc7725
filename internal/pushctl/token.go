package pushctl

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zulramsey7/GengKubur/pkg/middleware"
)

// devSecret は通知サービスが JWT_SECRET 未設定時に使う署名鍵。
const devSecret = "dev-secret-key"

func newTokenCmd() *cobra.Command {
	var (
		secret string
		userID string
		email  string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "開発用のJWTを発行する",
		Long:  "通知サービスと同じ署名鍵でJWTを発行する。既定では管理者ロールのトークンになる。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				userID = uuid.New().String()
			}
			token, err := middleware.GenerateJWT(secret, userID, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", getEnvOr("JWT_SECRET", devSecret), "JWTの署名鍵")
	cmd.Flags().StringVar(&userID, "user", "", "ユーザーID（省略時はランダム）")
	cmd.Flags().StringVar(&email, "email", "dev@localhost", "メールアドレス")
	cmd.Flags().StringVar(&role, "role", middleware.RoleAdmin, "ロール")
	return cmd
}

// getEnvOr は環境変数の値を返す。未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
