package subscriber

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

// ユーザーに表示するメッセージ。
const (
	msgUnsupported     = "Pelayar anda tidak menyokong notifikasi."
	msgPermissionError = "Ralat semasa meminta kebenaran."
	msgGranted         = "Kebenaran diterima, sedang mendaftar..."
	msgDenied          = "Notifikasi ditolak."
	msgSubscribed      = "Notifikasi diaktifkan sepenuhnya!"
	msgSubscribeFailed = "Gagal melanggan notifikasi."
)

var (
	// ErrUnsupportedPlatform は実行環境が通知またはService Workerに対応していないことを表す。
	ErrUnsupportedPlatform = errors.New("通知に対応していない環境です")
	// ErrPermissionDenied はユーザーが通知の表示を許可しなかったことを表す。
	ErrPermissionDenied = errors.New("通知の表示が許可されませんでした")
	// ErrSubscriptionFailed はプッシュサービスとの購読の確立に失敗したことを表す。
	ErrSubscriptionFailed = errors.New("プッシュ購読の確立に失敗")
	// ErrPersistFailed は購読の保存に失敗したことを表す。
	ErrPersistFailed = errors.New("購読の保存に失敗")
	// ErrAlreadySubscribed は同じエンドポイントが既に保存されていることを表す。
	// 購読処理としては成功扱いになる。
	ErrAlreadySubscribed = errors.New("既に購読済みです")
)

// SubscribeOptions はpushManager.subscribeに渡すオプション。
type SubscribeOptions struct {
	// UserVisibleOnly はすべてのプッシュが目に見える通知になることを宣言する。
	UserVisibleOnly bool
	// ApplicationServerKey は生のVAPID公開鍵。
	ApplicationServerKey []byte
}

// PushSubscription はプッシュサービスが発行した購読。
type PushSubscription struct {
	// Endpoint はプッシュサービスのURL。
	Endpoint string
	// P256dh は生の公開鍵素材。
	P256dh []byte
	// Auth は生の共有シークレット。
	Auth []byte
}

// PushManager はService Worker登録に紐づくプッシュ購読の窓口。
type PushManager interface {
	Subscribe(ctx context.Context, opts SubscribeOptions) (PushSubscription, error)
}

// Platform は通知の許可とService Workerを提供する実行環境。
type Platform interface {
	// NotificationsSupported は通知APIが使えるかを返す。
	NotificationsSupported() bool
	// Permission は現在の許可状態を返す。
	Permission() push.Permission
	// RequestPermission はユーザーに許可を求める。
	RequestPermission(ctx context.Context) (push.Permission, error)
	// ServiceWorkerReady はService Workerが有効になるまで待ち、そのPushManagerを返す。
	ServiceWorkerReady(ctx context.Context) (PushManager, error)
}

// Store は購読を保存する。同じエンドポイントが既にある場合はErrAlreadySubscribedを返す。
type Store interface {
	SaveSubscription(ctx context.Context, sub push.Subscription) error
}

// Toaster はアプリ内トーストを表示する。
type Toaster interface {
	Success(message string)
	Error(message string)
}

// IdentityFunc はログイン中のユーザーIDを返す。未ログインの場合は空文字を返す。
type IdentityFunc func(ctx context.Context) (string, error)

// Manager は通知の許可取得から購読の保存までを行う。
type Manager struct {
	platform       Platform
	store          Store
	toaster        Toaster
	vapidPublicKey string
	identity       IdentityFunc
}

// Option はManagerの設定を変更する関数。
type Option func(*Manager)

// WithIdentity は購読に紐づけるユーザーIDの取得方法を設定する。
func WithIdentity(fn IdentityFunc) Option {
	return func(m *Manager) {
		m.identity = fn
	}
}

// NewManager は新しいManagerを生成する。
// vapidPublicKeyはURLセーフbase64の公開鍵。
func NewManager(platform Platform, store Store, toaster Toaster, vapidPublicKey string, opts ...Option) *Manager {
	m := &Manager{
		platform:       platform,
		store:          store,
		toaster:        toaster,
		vapidPublicKey: vapidPublicKey,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RequestPermission はユーザーに通知の許可を求め、許可されれば購読を行う。
// 既に許可済みの場合は何もせずに許可状態を返す。
func (m *Manager) RequestPermission(ctx context.Context) (push.Permission, error) {
	if !m.platform.NotificationsSupported() {
		m.toaster.Error(msgUnsupported)
		return push.PermissionDefault, ErrUnsupportedPlatform
	}

	if current := m.platform.Permission(); current == push.PermissionGranted {
		return current, nil
	}

	result, err := m.platform.RequestPermission(ctx)
	if err != nil {
		log.Printf("[Subscriber] 許可の要求に失敗: %v", err)
		m.toaster.Error(msgPermissionError)
		return push.PermissionDefault, fmt.Errorf("通知の許可の要求に失敗: %w", err)
	}

	if result != push.PermissionGranted {
		m.toaster.Error(msgDenied)
		return result, ErrPermissionDenied
	}

	m.toaster.Success(msgGranted)
	return result, m.SubscribeUser(ctx)
}

// SubscribeUser はプッシュサービスと購読を確立し、購読ストアに保存する。
// 既に保存済みのエンドポイントであれば成功として扱う。
func (m *Manager) SubscribeUser(ctx context.Context) error {
	if err := m.subscribe(ctx); err != nil {
		log.Printf("[Subscriber] 購読に失敗: %v", err)
		m.toaster.Error(msgSubscribeFailed)
		return err
	}
	m.toaster.Success(msgSubscribed)
	return nil
}

// subscribe は購読の確立と保存を行う。
func (m *Manager) subscribe(ctx context.Context) error {
	pm, err := m.platform.ServiceWorkerReady(ctx)
	if err != nil {
		return fmt.Errorf("%w: Service Workerが利用できません: %w", ErrSubscriptionFailed, err)
	}

	key, err := push.DecodeApplicationServerKey(m.vapidPublicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)
	}

	ps, err := pm.Subscribe(ctx, SubscribeOptions{
		UserVisibleOnly:      true,
		ApplicationServerKey: key,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)
	}

	sub := push.Subscription{
		Endpoint: ps.Endpoint,
		P256dh:   push.EncodeKey(ps.P256dh),
		Auth:     push.EncodeKey(ps.Auth),
		OwnerRef: m.ownerRef(ctx),
	}
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscriptionFailed, err)
	}

	if err := m.store.SaveSubscription(ctx, sub); err != nil {
		if errors.Is(err, ErrAlreadySubscribed) {
			log.Printf("[Subscriber] 既に購読済みです")
			return nil
		}
		return fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}
	return nil
}

// ownerRef はログイン中のユーザーIDを返す。取得できない場合は匿名として扱う。
func (m *Manager) ownerRef(ctx context.Context) string {
	if m.identity == nil {
		return ""
	}
	id, err := m.identity(ctx)
	if err != nil {
		log.Printf("[Subscriber] ユーザーIDの取得に失敗したため匿名で購読します: %v", err)
		return ""
	}
	return id
}
