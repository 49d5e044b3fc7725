package serviceworker

import (
	"context"
	"encoding/json"
	"log"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

// ParsePayload はプッシュメッセージ本文を解釈する。
// 本文が無いかJSONとして読めない場合は既定のペイロードを返す。
func ParsePayload(data []byte) push.Payload {
	if len(data) == 0 {
		return push.DefaultPayload()
	}

	var p push.Payload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Printf("[ServiceWorker] ペイロードの解析に失敗したため既定値を使用します: %v", err)
		return push.DefaultPayload()
	}
	if p.Title == "" {
		p.Title = push.DefaultTitle
	}
	if p.Message == "" {
		p.Message = push.DefaultMessage
	}
	return p
}

// NotificationFor はペイロードから表示オプションを組み立てる。
func NotificationFor(p push.Payload) NotificationOptions {
	p = p.WithDefaults()
	return NotificationOptions{
		Body:  p.Message,
		Icon:  p.Icon,
		Badge: push.DefaultIcon,
		Data:  NotificationData{URL: p.URL},
	}
}

// handlePush はシステム通知を表示し、表示が終わるまでワーカーを保持する。
func (w *Worker) handlePush(_ context.Context, e *PushEvent) error {
	p := ParsePayload(e.Data)
	opts := NotificationFor(p)
	e.WaitUntil(func(ctx context.Context) error {
		return w.host.ShowNotification(ctx, p.Title, opts)
	})
	return nil
}

// handleNotificationClick は通知を閉じ、添付されたURLのウィンドウを開く。
func (w *Worker) handleNotificationClick(_ context.Context, e *NotificationClickEvent) error {
	url := push.DefaultURL
	if e.Notification != nil {
		e.Notification.Close()
		if e.Notification.Options.Data.URL != "" {
			url = e.Notification.Options.Data.URL
		}
	}
	e.WaitUntil(func(ctx context.Context) error {
		return w.host.OpenWindow(ctx, url)
	})
	return nil
}
