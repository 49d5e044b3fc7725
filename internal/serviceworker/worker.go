package serviceworker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// defaultCacheName は現在のアセットキャッシュの世代名。
const defaultCacheName = "gengkubur-precache-v1"

// State はワーカーのライフサイクル状態。
type State string

const (
	// StateParsed は登録直後でまだインストールされていない状態。
	StateParsed State = "parsed"
	// StateInstalling はインストール中の状態。
	StateInstalling State = "installing"
	// StateWaiting はインストール済みで有効化を待っている状態。
	StateWaiting State = "waiting"
	// StateActive は有効化されイベントを受け取れる状態。
	StateActive State = "active"
	// StateRedundant はインストールに失敗したか、置き換えられた状態。
	StateRedundant State = "redundant"
)

var (
	// ErrNotActive はワーカーが有効化されていないことを表す。
	ErrNotActive = errors.New("Service Workerが有効化されていません")
	// ErrInvalidState は現在の状態では実行できない遷移であることを表す。
	ErrInvalidState = errors.New("Service Workerの状態が不正です")
)

// Host はワーカーが利用するプラットフォームの機能。
type Host interface {
	// ShowNotification はシステム通知を表示する。
	ShowNotification(ctx context.Context, title string, opts NotificationOptions) error
	// OpenWindow は指定URLのウィンドウを開く。
	OpenWindow(ctx context.Context, url string) error
	// ClaimClients は既存のクライアントをこのワーカーの制御下に置く。
	ClaimClients(ctx context.Context) error
	// CacheNames は保存されているキャッシュ名の一覧を返す。
	CacheNames(ctx context.Context) ([]string, error)
	// DeleteCache は指定したキャッシュを削除する。
	DeleteCache(ctx context.Context, name string) error
}

// Handler はイベントハンドラ。
type Handler func(ctx context.Context, e Event) error

// Worker はプッシュ通知を受け取るバックグラウンドワーカー。
type Worker struct {
	host      Host
	cacheName string

	mu       sync.RWMutex
	state    State
	handlers map[Kind][]Handler
}

// Option はWorkerの設定を変更する関数。
type Option func(*Worker)

// WithCacheName は現在のキャッシュ世代名を設定する。有効化時にこれ以外のキャッシュは削除される。
func WithCacheName(name string) Option {
	return func(w *Worker) {
		w.cacheName = name
	}
}

// WithoutDefaultHandlers は既定のpushとnotificationclickハンドラを登録しない。
func WithoutDefaultHandlers() Option {
	return func(w *Worker) {
		w.handlers = make(map[Kind][]Handler)
	}
}

// New は新しいWorkerを生成する。既定のpushとnotificationclickハンドラを登録する。
func New(host Host, opts ...Option) *Worker {
	w := &Worker{
		host:      host,
		cacheName: defaultCacheName,
		state:     StateParsed,
		handlers:  make(map[Kind][]Handler),
	}
	w.OnPush(w.handlePush)
	w.OnNotificationClick(w.handleNotificationClick)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State は現在のライフサイクル状態を返す。
func (w *Worker) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Handle はイベントの種類にハンドラを追加する。登録順に呼び出される。
func (w *Worker) Handle(kind Kind, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[kind] = append(w.handlers[kind], h)
}

// OnPush はpushイベントのハンドラを追加する。
func (w *Worker) OnPush(fn func(ctx context.Context, e *PushEvent) error) {
	w.Handle(KindPush, func(ctx context.Context, e Event) error {
		return fn(ctx, e.(*PushEvent))
	})
}

// OnNotificationClick はnotificationclickイベントのハンドラを追加する。
func (w *Worker) OnNotificationClick(fn func(ctx context.Context, e *NotificationClickEvent) error) {
	w.Handle(KindNotificationClick, func(ctx context.Context, e Event) error {
		return fn(ctx, e.(*NotificationClickEvent))
	})
}

// Start はワーカーを起動する。Installと同じく有効化まで行う。
func (w *Worker) Start(ctx context.Context) error {
	return w.Install(ctx)
}

// Install はワーカーをインストールし、待機せずにそのまま有効化する。
// installハンドラのWaitUntilが失敗した場合はredundantになる。
func (w *Worker) Install(ctx context.Context) error {
	if err := w.transition(StateParsed, StateInstalling); err != nil {
		return err
	}

	if err := w.dispatch(ctx, &lifecycleEvent{kind: KindInstall}); err != nil {
		w.setState(StateRedundant)
		return fmt.Errorf("インストールに失敗: %w", err)
	}

	w.setState(StateWaiting)
	log.Printf("[ServiceWorker] インストールしました")
	return w.activate(ctx)
}

// activate はワーカーを有効化する。
// 現在の世代以外のキャッシュを削除し、既存のクライアントを制御下に置く。
func (w *Worker) activate(ctx context.Context) error {
	if err := w.transition(StateWaiting, StateActive); err != nil {
		return err
	}

	w.cleanupOutdatedCaches(ctx)

	if err := w.dispatch(ctx, &lifecycleEvent{kind: KindActivate}); err != nil {
		log.Printf("[ServiceWorker] activateハンドラでエラーが発生: %v", err)
	}

	if err := w.host.ClaimClients(ctx); err != nil {
		log.Printf("[ServiceWorker] クライアントの取得に失敗: %v", err)
	}

	log.Printf("[ServiceWorker] 有効化しました: cache=%s", w.cacheName)
	return nil
}

// Terminate はワーカーを停止してredundantにする。
func (w *Worker) Terminate() {
	w.setState(StateRedundant)
}

// Dispatch はイベントを登録済みのハンドラに渡し、WaitUntilで登録された処理の完了を待つ。
// ハンドラのエラーやパニックはログに記録し、呼び出し元には返さない。
func (w *Worker) Dispatch(ctx context.Context, e Event) error {
	if w.State() != StateActive {
		return fmt.Errorf("%w: %sイベントを処理できません", ErrNotActive, e.Kind())
	}
	if err := w.dispatch(ctx, e); err != nil {
		log.Printf("[ServiceWorker] %sイベントの処理でエラーが発生: %v", e.Kind(), err)
	}
	return nil
}

// Run はイベントを受け取り、ctxがキャンセルされるかチャネルが閉じられるまで処理する。
// 終了時には処理中のイベントの完了を待つ。
func (w *Worker) Run(ctx context.Context, events <-chan Event) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := w.Dispatch(ctx, e); err != nil {
					log.Printf("[ServiceWorker] イベントを破棄しました: %v", err)
				}
			}()
		}
	}
}

// dispatch はハンドラを順に呼び出し、WaitUntilの完了を待ってエラーをまとめて返す。
func (w *Worker) dispatch(ctx context.Context, e Event) error {
	w.mu.RLock()
	handlers := append([]Handler(nil), w.handlers[e.Kind()]...)
	w.mu.RUnlock()

	ext := e.extendable()
	ext.bind(ctx)

	var errs []error
	for _, h := range handlers {
		if err := invoke(ctx, h, e); err != nil {
			errs = append(errs, err)
		}
	}
	if err := ext.wait(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// invoke はハンドラを呼び出し、パニックをエラーに変換する。
func invoke(ctx context.Context, h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ハンドラでパニックが発生: %v", r)
		}
	}()
	return h(ctx, e)
}

// cleanupOutdatedCaches は現在の世代以外のキャッシュを削除する。
func (w *Worker) cleanupOutdatedCaches(ctx context.Context) {
	names, err := w.host.CacheNames(ctx)
	if err != nil {
		log.Printf("[ServiceWorker] キャッシュ一覧の取得に失敗: %v", err)
		return
	}
	for _, name := range names {
		if name == w.cacheName {
			continue
		}
		if err := w.host.DeleteCache(ctx, name); err != nil {
			log.Printf("[ServiceWorker] キャッシュの削除に失敗: name=%s, error=%v", name, err)
			continue
		}
		log.Printf("[ServiceWorker] 古いキャッシュを削除しました: %s", name)
	}
}

func (w *Worker) transition(from, to State) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != from {
		return fmt.Errorf("%w: %s から %s へは遷移できません", ErrInvalidState, w.state, to)
	}
	w.state = to
	return nil
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	w.state = s
	w.mu.Unlock()
}
