package pushctl

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulramsey7/GengKubur/internal/realtime"
	"github.com/zulramsey7/GengKubur/pkg/event"
	"github.com/zulramsey7/GengKubur/pkg/httpclient"
)

// writerToaster はトーストを1行ずつ書き出す。
type writerToaster struct {
	mu sync.Mutex
	w  io.Writer
}

func (t *writerToaster) Toast(title, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, "[%s] %s\n", title, description)
}

func newListenCmd() *cobra.Command {
	var (
		server  string
		channel string
	)

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "新しい通知を受信して表示する",
		Long:  "変更フィードに接続し、通知テーブルへの挿入をトーストとして表示する。Ctrl+Cで終了する。",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			feed := realtime.NewSSEFeed(httpclient.New(server))
			bridge := realtime.NewBridge(feed, &writerToaster{w: cmd.OutOrStdout()}, realtime.WithChannel(channel))
			if err := bridge.Start(ctx); err != nil {
				return fmt.Errorf("変更フィードへの接続に失敗: %w", err)
			}
			defer bridge.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "%s の %s を受信しています\n", server, channel)
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&server, "server", defaultServer, "通知サービスのURL")
	cmd.Flags().StringVar(&channel, "channel", event.ChannelNotifications, "受信するチャネル")
	return cmd
}
