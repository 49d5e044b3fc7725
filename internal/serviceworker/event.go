package serviceworker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Kind はワーカーが受け取るイベントの種類。
type Kind string

const (
	// KindInstall はインストール時のイベント。
	KindInstall Kind = "install"
	// KindActivate は有効化時のイベント。
	KindActivate Kind = "activate"
	// KindPush はプッシュメッセージ受信時のイベント。
	KindPush Kind = "push"
	// KindNotificationClick は通知クリック時のイベント。
	KindNotificationClick Kind = "notificationclick"
)

// Event はワーカーにディスパッチされるイベント。
type Event interface {
	Kind() Kind
	extendable() *ExtendableEvent
}

// ExtendableEvent はハンドラが非同期処理の完了までディスパッチを保持できるイベント。
type ExtendableEvent struct {
	mu   sync.Mutex
	ctx  context.Context
	wg   sync.WaitGroup
	errs []error
}

// WaitUntil はfnを実行し、完了するまでイベントのディスパッチを終了させない。
// fnのエラーとパニックはディスパッチの終了時にまとめて扱われる。
func (e *ExtendableEvent) WaitUntil(fn func(ctx context.Context) error) {
	ctx := e.context()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.record(fmt.Errorf("WaitUntil内でパニックが発生: %v", r))
			}
		}()
		if err := fn(ctx); err != nil {
			e.record(err)
		}
	}()
}

// bind はディスパッチのコンテキストをイベントに設定する。
func (e *ExtendableEvent) bind(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

func (e *ExtendableEvent) context() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

func (e *ExtendableEvent) record(err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

// wait はWaitUntilで登録されたすべての処理の完了を待つ。
func (e *ExtendableEvent) wait() error {
	e.wg.Wait()
	e.mu.Lock()
	defer e.mu.Unlock()
	return errors.Join(e.errs...)
}

// lifecycleEvent はinstallとactivateのイベント。
type lifecycleEvent struct {
	ExtendableEvent
	kind Kind
}

func (e *lifecycleEvent) Kind() Kind                   { return e.kind }
func (e *lifecycleEvent) extendable() *ExtendableEvent { return &e.ExtendableEvent }

// PushEvent はプッシュメッセージの受信を表す。
type PushEvent struct {
	ExtendableEvent
	// Data は復号済みのメッセージ本文。本文が無い場合はnil。
	Data []byte
}

// NewPushEvent は新しいPushEventを生成する。
func NewPushEvent(data []byte) *PushEvent {
	return &PushEvent{Data: data}
}

// Kind はイベントの種類を返す。
func (e *PushEvent) Kind() Kind                   { return KindPush }
func (e *PushEvent) extendable() *ExtendableEvent { return &e.ExtendableEvent }

// NotificationClickEvent は表示中の通知がクリックされたことを表す。
type NotificationClickEvent struct {
	ExtendableEvent
	// Notification はクリックされた通知。
	Notification *Notification
}

// NewNotificationClickEvent は新しいNotificationClickEventを生成する。
func NewNotificationClickEvent(n *Notification) *NotificationClickEvent {
	return &NotificationClickEvent{Notification: n}
}

// Kind はイベントの種類を返す。
func (e *NotificationClickEvent) Kind() Kind                   { return KindNotificationClick }
func (e *NotificationClickEvent) extendable() *ExtendableEvent { return &e.ExtendableEvent }

// NotificationData は通知に添付するデータ。
type NotificationData struct {
	// URL は通知クリック時に開くURL。
	URL string `json:"url"`
}

// NotificationOptions はshowNotificationに渡す表示オプション。
type NotificationOptions struct {
	// Body は通知の本文。
	Body string `json:"body"`
	// Icon は通知アイコンのURL。
	Icon string `json:"icon"`
	// Badge はステータスバーに表示する小さなアイコンのURL。
	Badge string `json:"badge"`
	// Data は通知に添付するデータ。
	Data NotificationData `json:"data"`
}

// Notification は表示中のシステム通知。
type Notification struct {
	// Title は通知の見出し。
	Title string
	// Options は表示オプション。
	Options NotificationOptions

	closeOnce sync.Once
	onClose   func()
}

// NewNotification は新しいNotificationを生成する。onCloseは通知を閉じるときに1回だけ呼ばれる。
func NewNotification(title string, opts NotificationOptions, onClose func()) *Notification {
	return &Notification{Title: title, Options: opts, onClose: onClose}
}

// Close は通知を閉じる。
func (n *Notification) Close() {
	n.closeOnce.Do(func() {
		if n.onClose != nil {
			n.onClose()
		}
	})
}
