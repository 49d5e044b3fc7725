package notification

import (
	"context"
	"fmt"

	notificationdb "github.com/zulramsey7/GengKubur/internal/notification/db"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

// subscriptionStore はsqlcのクエリをディスパッチャーの購読ストアとして提供する。
type subscriptionStore struct {
	queries *notificationdb.Queries
}

// ListSubscriptionsAfter はIDがafterIDより大きい購読をID順に最大limit件返す。
func (s *subscriptionStore) ListSubscriptionsAfter(ctx context.Context, afterID string, limit int) ([]push.Subscription, error) {
	rows, err := s.queries.ListSubscriptionsAfter(ctx, notificationdb.ListSubscriptionsAfterParams{
		ID:    afterID,
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("購読一覧の取得に失敗: %w", err)
	}

	subs := make([]push.Subscription, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toSubscription(row))
	}
	return subs, nil
}

// DeleteSubscription は指定IDの購読を削除する。
func (s *subscriptionStore) DeleteSubscription(ctx context.Context, id string) error {
	if _, err := s.queries.DeleteSubscription(ctx, id); err != nil {
		return fmt.Errorf("購読の削除に失敗: %w", err)
	}
	return nil
}

// toSubscription はDB行を購読に変換する。
func toSubscription(row notificationdb.PushSubscription) push.Subscription {
	return push.Subscription{
		ID:        row.ID,
		Endpoint:  row.Endpoint,
		P256dh:    row.P256dh,
		Auth:      row.Auth,
		OwnerRef:  row.OwnerRef.String,
		CreatedAt: row.CreatedAt,
	}
}

// toNotificationRecord はDB行を通知レコードに変換する。
func toNotificationRecord(row notificationdb.Notification) push.NotificationRecord {
	return push.NotificationRecord{
		ID:         row.ID,
		Title:      row.Title,
		Message:    row.Message,
		Icon:       row.Icon,
		URL:        row.Url,
		PushStatus: push.PushStatus(row.PushStatus),
		Attempted:  int(row.Attempted),
		Delivered:  int(row.Delivered),
		Gone:       int(row.Gone),
		Failed:     int(row.Failed),
		CreatedAt:  row.CreatedAt,
	}
}
