package subscriber

import (
	"context"
	"net/http"

	"github.com/zulramsey7/GengKubur/pkg/httpclient"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

// HTTPStore は通知サービスのAPIを介して購読を保存する。
type HTTPStore struct {
	client *httpclient.Client
}

// NewHTTPStore は新しいHTTPStoreを生成する。
func NewHTTPStore(client *httpclient.Client) *HTTPStore {
	return &HTTPStore{client: client}
}

// SaveSubscription は購読を登録する。409はErrAlreadySubscribedに変換する。
func (s *HTTPStore) SaveSubscription(ctx context.Context, sub push.Subscription) error {
	req := push.SubscribeRequest{
		Endpoint: sub.Endpoint,
		Keys: push.SubscriptionKeys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
		OwnerRef: sub.OwnerRef,
	}

	var resp map[string]any
	err := s.client.PostJSON(ctx, "/api/v1/push/subscriptions", req, &resp)
	if code, ok := httpclient.StatusCode(err); ok && code == http.StatusConflict {
		return ErrAlreadySubscribed
	}
	return err
}

// VAPIDPublicKey は通知サービスからVAPID公開鍵を取得する。
func (s *HTTPStore) VAPIDPublicKey(ctx context.Context) (string, error) {
	var resp push.VAPIDPublicKeyResponse
	if err := s.client.GetJSON(ctx, "/api/v1/push/vapid-public-key", &resp); err != nil {
		return "", err
	}
	return resp.PublicKey, nil
}
