package pushctl

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zulramsey7/GengKubur/pkg/httpclient"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

// createResponse は通知作成APIのレスポンス。
type createResponse struct {
	ID        string `json:"id"`
	Saved     bool   `json:"saved"`
	PushOK    bool   `json:"push_ok"`
	PushError string `json:"push_error"`
	Attempted int    `json:"attempted"`
	Delivered int    `json:"delivered"`
	Gone      int    `json:"gone"`
	Failed    int    `json:"failed"`
}

func newSendCmd() *cobra.Command {
	var (
		payload push.Payload
		server  string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "通知を保存して全購読者に配信する",
		Long:  "管理者として通知を作成する。保存に成功して配信だけ失敗した場合は警告を表示する。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := payload.Validate(); err != nil {
				return err
			}
			if token == "" {
				return fmt.Errorf("管理者トークンを --token または PUSHCTL_TOKEN で指定してください")
			}

			client := httpclient.New(server, httpclient.WithBearerToken(token))
			var resp createResponse
			if err := client.PostJSON(cmd.Context(), "/api/v1/notifications", payload, &resp); err != nil {
				return fmt.Errorf("通知の作成に失敗: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "通知を保存しました: id=%s\n", resp.ID)
			if !resp.PushOK {
				fmt.Fprintf(out, "警告: 通知は保存されましたが、プッシュ配信に失敗しました: %s\n", resp.PushError)
				return nil
			}
			fmt.Fprintf(out, "配信結果: 対象=%d 成功=%d 失効=%d 失敗=%d\n",
				resp.Attempted, resp.Delivered, resp.Gone, resp.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&payload.Title, "title", "", "通知のタイトル")
	cmd.Flags().StringVar(&payload.Message, "message", "", "通知メッセージ")
	cmd.Flags().StringVar(&payload.Icon, "icon", "", "通知アイコンのURL")
	cmd.Flags().StringVar(&payload.URL, "url", "", "通知クリック時の遷移先")
	cmd.Flags().StringVar(&server, "server", defaultServer, "通知サービスのURL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("PUSHCTL_TOKEN"), "管理者のJWT")
	return cmd
}
