package realtime

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/zulramsey7/GengKubur/pkg/event"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

// ErrAlreadyStarted はBridgeが既に購読中であることを表す。
var ErrAlreadyStarted = errors.New("Realtime Bridgeは既に開始されています")

// Toaster はアプリ内トーストを表示する。
type Toaster interface {
	Toast(title, description string)
}

// NotificationOptions はシステム通知の表示オプション。
type NotificationOptions struct {
	// Body は通知の本文。
	Body string
	// Icon は通知アイコンのURL。
	Icon string
}

// SystemNotifier はOSのシステム通知を表示する。
type SystemNotifier interface {
	Notify(title string, opts NotificationOptions) error
}

// Bridge は通知テーブルへの挿入を、開いているクライアントの
// アプリ内トーストとシステム通知に変換する。
type Bridge struct {
	feed       Feed
	toaster    Toaster
	notifier   SystemNotifier
	permission func() push.Permission
	channel    string

	mu     sync.Mutex
	cancel func()
	done   chan struct{}
}

// BridgeOption はBridgeの設定を変更する関数。
type BridgeOption func(*Bridge)

// WithSystemNotifier はシステム通知の表示先と許可状態の取得方法を設定する。
func WithSystemNotifier(n SystemNotifier, permission func() push.Permission) BridgeOption {
	return func(b *Bridge) {
		b.notifier = n
		b.permission = permission
	}
}

// WithChannel は購読するチャネル名を設定する。
func WithChannel(channel string) BridgeOption {
	return func(b *Bridge) {
		b.channel = channel
	}
}

// NewBridge は新しいBridgeを生成する。
func NewBridge(feed Feed, toaster Toaster, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		feed:    feed,
		toaster: toaster,
		channel: event.ChannelNotifications,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start は通知テーブルのINSERTイベントの購読を開始する。
// Closeせずに再度呼び出すとErrAlreadyStartedを返す。
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cancel != nil {
		return ErrAlreadyStarted
	}

	stream, cancel, err := b.feed.Listen(ctx, b.channel, event.Filter{
		Table: event.TableNotifications,
		Type:  event.TypeInsert,
	})
	if err != nil {
		return err
	}

	done := make(chan struct{})
	b.cancel = cancel
	b.done = done

	go func() {
		defer close(done)
		for e := range stream {
			b.handle(e)
		}
	}()
	return nil
}

// Close は購読を解放し、受信処理の終了を待つ。
// 何度呼び出してもよく、購読の解放は1回だけ行われる。
func (b *Bridge) Close() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// handle は1件のINSERTイベントをトーストとシステム通知に変換する。
// トーストは常に先に表示し、システム通知は許可されている場合だけ試みる。
func (b *Bridge) handle(e event.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Realtime] イベント処理中にパニックが発生: %v", r)
		}
	}()

	rec, err := event.DecodeRecord[push.NotificationRecord](&e)
	if err != nil {
		log.Printf("[Realtime] 通知レコードの解析に失敗: %v", err)
		return
	}

	b.toaster.Toast(rec.Title, rec.Message)
	b.notify(*rec)
}

// notify はシステム通知を表示する。失敗はログに記録するだけにする。
func (b *Bridge) notify(rec push.NotificationRecord) {
	if b.notifier == nil || b.permission == nil || b.permission() != push.PermissionGranted {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Realtime] システム通知の表示中にパニックが発生: %v", r)
		}
	}()

	icon := rec.Icon
	if icon == "" {
		icon = push.DefaultIcon
	}
	if err := b.notifier.Notify(rec.Title, NotificationOptions{Body: rec.Message, Icon: icon}); err != nil {
		log.Printf("[Realtime] システム通知の表示に失敗: %v", err)
	}
}
