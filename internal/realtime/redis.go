package realtime

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/zulramsey7/GengKubur/pkg/event"
)

// defaultRedisPrefix はRedisのPub/Subチャネル名の接頭辞。
const defaultRedisPrefix = "gengkubur:realtime:"

// RedisRelay はRedisのPub/Subを介して複数インスタンスのHubに変更イベントを配る。
// Publishしたイベントは自インスタンスにもRun経由で届く。
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	prefix string
}

// NewRedisRelay は新しいRedisRelayを生成する。
func NewRedisRelay(client *redis.Client, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, prefix: defaultRedisPrefix}
}

// Publish はイベントをRedisへ発行する。
func (r *RedisRelay) Publish(ctx context.Context, e event.Event) error {
	b, err := event.Marshal(&e)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.prefix+e.Channel, b).Err(); err != nil {
		return fmt.Errorf("Redisへのイベント発行に失敗: %w", err)
	}
	return nil
}

// Run はRedisを購読し、受信したイベントをローカルのHubへ転送する。
// ctxがキャンセルされるまでブロックする。
func (r *RedisRelay) Run(ctx context.Context) error {
	ps := r.client.PSubscribe(ctx, r.prefix+"*")
	defer ps.Close()

	// 購読の確立を待ってから受信を始める
	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("Redisの購読に失敗: %w", err)
	}
	log.Printf("[Realtime] Redisリレーを開始しました: %s*", r.prefix)

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			e, err := event.Unmarshal([]byte(msg.Payload))
			if err != nil {
				log.Printf("[Realtime] Redisメッセージの解析に失敗: %v", err)
				continue
			}
			if e.Channel == "" {
				e.Channel = strings.TrimPrefix(msg.Channel, r.prefix)
			}
			_ = r.hub.Publish(ctx, *e)
		}
	}
}
