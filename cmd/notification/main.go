// 通知サービスのエントリポイント。
// プッシュ購読の保存、全購読へのWeb Push配信、通知履歴と変更フィードを提供する。
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/zulramsey7/GengKubur/internal/notification"
)

// server は起動と終了処理を持つサーバー。
type server interface {
	Run() error
	Close() error
}

func main() {
	// .envは開発環境向け。無くても環境変数だけで起動できる
	if err := godotenv.Load(); err != nil {
		log.Printf(".envを読み込みませんでした: %v", err)
	}

	cfg, err := notification.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	srv, err := notification.NewServer(cfg)
	if err != nil {
		log.Fatalf("通知サーバーの初期化に失敗: %v", err)
	}

	log.Printf("通知サービスを起動します: :%s", cfg.Port)
	os.Exit(serve(srv))
}

// serve はサーバーを実行し、終了後に必ず接続を閉じて終了コードを返す。
func serve(srv server) int {
	code := 0
	if err := srv.Run(); err != nil {
		log.Printf("通知サービスの起動に失敗: %v", err)
		code = 1
	}
	if err := srv.Close(); err != nil {
		log.Printf("接続のクローズに失敗: %v", err)
		code = 1
	}
	return code
}
