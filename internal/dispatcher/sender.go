package dispatcher

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

// defaultTTL はプッシュサービスがメッセージを保持する既定の秒数（24時間）。
const defaultTTL = 24 * 60 * 60

// DeliveryError はプッシュサービスが2xx以外を返したことを表す。
type DeliveryError struct {
	// StatusCode はプッシュサービスのHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディの先頭部分。
	Body string
}

// Error はエラーメッセージを返す。
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("プッシュサービスがエラーを返しました: status=%d, body=%s", e.StatusCode, e.Body)
}

// IsGone はerrが購読の失効（404 Not Found または 410 Gone）を表すかを返す。
func IsGone(err error) bool {
	var de *DeliveryError
	if !errors.As(err, &de) {
		return false
	}
	return de.StatusCode == http.StatusGone || de.StatusCode == http.StatusNotFound
}

// WebPushSender はVAPID署名付きでWeb Pushプロトコルのメッセージを送る。
type WebPushSender struct {
	// keys はプロセス全体で共有するVAPID鍵ペア。
	keys push.VAPIDKeys
	// ttl はプッシュサービスがメッセージを保持する秒数。
	ttl int
	// urgency はメッセージの緊急度。
	urgency webpush.Urgency
	// httpClient はプッシュサービスへのHTTPクライアント。
	httpClient webpush.HTTPClient
}

// SenderOption はWebPushSenderの設定を変更する関数。
type SenderOption func(*WebPushSender)

// WithTTL はメッセージの保持期間を設定する。
func WithTTL(d time.Duration) SenderOption {
	return func(s *WebPushSender) {
		s.ttl = int(d.Seconds())
	}
}

// WithUrgency はメッセージの緊急度を設定する。
func WithUrgency(u webpush.Urgency) SenderOption {
	return func(s *WebPushSender) {
		s.urgency = u
	}
}

// WithHTTPClient はプッシュサービスへのHTTPクライアントを差し替える。
func WithHTTPClient(c webpush.HTTPClient) SenderOption {
	return func(s *WebPushSender) {
		s.httpClient = c
	}
}

// NewWebPushSender は新しいWebPushSenderを生成する。
// VAPID鍵ペアが未設定または不正な場合はErrNotConfiguredを返す。
func NewWebPushSender(keys push.VAPIDKeys, opts ...SenderOption) (*WebPushSender, error) {
	if err := keys.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}

	s := &WebPushSender{
		keys:       keys,
		ttl:        defaultTTL,
		urgency:    webpush.UrgencyNormal,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send は購読1件へペイロードを暗号化して送る。
func (s *WebPushSender) Send(ctx context.Context, sub push.Subscription, payload []byte) error {
	p256dh, err := normalizeKey(sub.P256dh)
	if err != nil {
		return fmt.Errorf("p256dhが不正です: %w", err)
	}
	auth, err := normalizeKey(sub.Auth)
	if err != nil {
		return fmt.Errorf("authが不正です: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: p256dh,
			Auth:   auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.keys.SubscriberContact(),
		VAPIDPublicKey:  s.keys.PublicKey,
		VAPIDPrivateKey: s.keys.PrivateKey,
		TTL:             s.ttl,
		Urgency:         s.urgency,
	})
	if err != nil {
		return fmt.Errorf("プッシュ送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &DeliveryError{StatusCode: resp.StatusCode, Body: string(body)}
}

// normalizeKey は保存された鍵テキストをデコードし、Web Pushで使う
// URLセーフbase64に揃える。デコードできない鍵はここで弾く。
func normalizeKey(stored string) (string, error) {
	raw, err := push.DecodeKey(stored)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", errors.New("鍵が空です")
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
