package subscriber

import (
	"context"
	"errors"
	"testing"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

// testVAPIDPublicKey はURLセーフbase64の非圧縮P-256公開鍵。
const testVAPIDPublicKey = "BBD6KDYqYXi-NfrLwG2mxGKI1laRawJF6KeCukcY5lUEG0BvxqXQPK2nNP9keNtacuT5CmlpAjpDLxHTn-PjVPM"

type fakePushManager struct {
	sub  PushSubscription
	err  error
	opts SubscribeOptions
}

func (f *fakePushManager) Subscribe(_ context.Context, opts SubscribeOptions) (PushSubscription, error) {
	f.opts = opts
	return f.sub, f.err
}

type fakePlatform struct {
	supported   bool
	current     push.Permission
	result      push.Permission
	requestErr  error
	readyErr    error
	pm          *fakePushManager
	requestCall int
}

func (f *fakePlatform) NotificationsSupported() bool { return f.supported }
func (f *fakePlatform) Permission() push.Permission  { return f.current }

func (f *fakePlatform) RequestPermission(context.Context) (push.Permission, error) {
	f.requestCall++
	return f.result, f.requestErr
}

func (f *fakePlatform) ServiceWorkerReady(context.Context) (PushManager, error) {
	if f.readyErr != nil {
		return nil, f.readyErr
	}
	return f.pm, nil
}

type fakeStore struct {
	saved []push.Subscription
	err   error
}

func (f *fakeStore) SaveSubscription(_ context.Context, sub push.Subscription) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, sub)
	return nil
}

type fakeToaster struct {
	successes []string
	errors    []string
}

func (f *fakeToaster) Success(m string) { f.successes = append(f.successes, m) }
func (f *fakeToaster) Error(m string)   { f.errors = append(f.errors, m) }

func newTestPlatform() *fakePlatform {
	return &fakePlatform{
		supported: true,
		current:   push.PermissionDefault,
		result:    push.PermissionGranted,
		pm: &fakePushManager{sub: PushSubscription{
			Endpoint: "https://fcm.googleapis.com/fcm/send/abc",
			P256dh:   []byte{0x04, 0x01, 0x02, 0xfb, 0xff},
			Auth:     []byte{0xde, 0xad, 0xbe, 0xef},
		}},
	}
}

func TestManager_RequestPermission(t *testing.T) {
	t.Parallel()

	t.Run("許可されると購読を保存する", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		store := &fakeStore{}
		toaster := &fakeToaster{}
		m := NewManager(platform, store, toaster, testVAPIDPublicKey, WithIdentity(func(context.Context) (string, error) {
			return "user-1", nil
		}))

		got, err := m.RequestPermission(t.Context())
		if err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if got != push.PermissionGranted {
			t.Errorf("許可状態が不正: %s", got)
		}
		if len(store.saved) != 1 {
			t.Fatalf("保存件数が不正: %d", len(store.saved))
		}

		saved := store.saved[0]
		if saved.Endpoint != "https://fcm.googleapis.com/fcm/send/abc" {
			t.Errorf("endpointが不正: %s", saved.Endpoint)
		}
		if saved.P256dh != "BAEC+/8=" {
			t.Errorf("p256dhが標準base64になっていない: %s", saved.P256dh)
		}
		if saved.Auth != "3q2+7w==" {
			t.Errorf("authが標準base64になっていない: %s", saved.Auth)
		}
		if saved.OwnerRef != "user-1" {
			t.Errorf("owner_refが不正: %s", saved.OwnerRef)
		}

		opts := platform.pm.opts
		if !opts.UserVisibleOnly {
			t.Error("userVisibleOnlyが指定されていない")
		}
		if len(opts.ApplicationServerKey) != 65 || opts.ApplicationServerKey[0] != 0x04 {
			t.Errorf("applicationServerKeyが不正: %d bytes", len(opts.ApplicationServerKey))
		}
		if len(toaster.successes) != 2 || toaster.successes[1] != msgSubscribed {
			t.Errorf("成功トーストが不正: %v", toaster.successes)
		}
	})

	t.Run("既に許可済みなら要求も購読もしない", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		platform.current = push.PermissionGranted
		store := &fakeStore{}
		m := NewManager(platform, store, &fakeToaster{}, testVAPIDPublicKey)

		got, err := m.RequestPermission(t.Context())
		if err != nil || got != push.PermissionGranted {
			t.Fatalf("got %s, %v", got, err)
		}
		if platform.requestCall != 0 {
			t.Error("許可の要求が行われた")
		}
		if len(store.saved) != 0 {
			t.Error("購読が保存された")
		}
	})

	t.Run("拒否された場合はErrPermissionDeniedを返し保存しない", func(t *testing.T) {
		t.Parallel()

		for _, result := range []push.Permission{push.PermissionDenied, push.PermissionDefault} {
			platform := newTestPlatform()
			platform.result = result
			store := &fakeStore{}
			toaster := &fakeToaster{}

			got, err := NewManager(platform, store, toaster, testVAPIDPublicKey).RequestPermission(t.Context())
			if !errors.Is(err, ErrPermissionDenied) {
				t.Errorf("%s: ErrPermissionDeniedが返されるべき: %v", result, err)
			}
			if got != result {
				t.Errorf("%s: 許可状態が不正: %s", result, got)
			}
			if len(store.saved) != 0 {
				t.Errorf("%s: 購読が保存された", result)
			}
			if len(toaster.errors) != 1 || toaster.errors[0] != msgDenied {
				t.Errorf("%s: エラートーストが不正: %v", result, toaster.errors)
			}
		}
	})

	t.Run("通知に対応していない環境ではErrUnsupportedPlatformを返す", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		platform.supported = false
		toaster := &fakeToaster{}

		_, err := NewManager(platform, &fakeStore{}, toaster, testVAPIDPublicKey).RequestPermission(t.Context())
		if !errors.Is(err, ErrUnsupportedPlatform) {
			t.Errorf("ErrUnsupportedPlatformが返されるべき: %v", err)
		}
		if platform.requestCall != 0 {
			t.Error("許可の要求が行われた")
		}
		if len(toaster.errors) != 1 || toaster.errors[0] != msgUnsupported {
			t.Errorf("エラートーストが不正: %v", toaster.errors)
		}
	})

	t.Run("許可の要求自体が失敗した場合はエラーを返す", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		platform.requestErr = errors.New("not allowed in iframe")
		toaster := &fakeToaster{}

		if _, err := NewManager(platform, &fakeStore{}, toaster, testVAPIDPublicKey).RequestPermission(t.Context()); err == nil {
			t.Error("エラーが返されるべき")
		}
		if len(toaster.errors) != 1 || toaster.errors[0] != msgPermissionError {
			t.Errorf("エラートーストが不正: %v", toaster.errors)
		}
	})
}

func TestManager_SubscribeUser(t *testing.T) {
	t.Parallel()

	t.Run("既に購読済みの場合は成功として扱う", func(t *testing.T) {
		t.Parallel()

		toaster := &fakeToaster{}
		store := &fakeStore{err: ErrAlreadySubscribed}
		if err := NewManager(newTestPlatform(), store, toaster, testVAPIDPublicKey).SubscribeUser(t.Context()); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(toaster.successes) != 1 || toaster.successes[0] != msgSubscribed {
			t.Errorf("成功トーストが不正: %v", toaster.successes)
		}
	})

	t.Run("保存に失敗した場合はErrPersistFailedを返す", func(t *testing.T) {
		t.Parallel()

		cause := errors.New("connection refused")
		toaster := &fakeToaster{}
		err := NewManager(newTestPlatform(), &fakeStore{err: cause}, toaster, testVAPIDPublicKey).SubscribeUser(t.Context())
		if !errors.Is(err, ErrPersistFailed) {
			t.Errorf("ErrPersistFailedが返されるべき: %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("原因が保持されていない: %v", err)
		}
		if len(toaster.errors) != 1 || toaster.errors[0] != msgSubscribeFailed {
			t.Errorf("エラートーストが不正: %v", toaster.errors)
		}
	})

	t.Run("プッシュサービスとの購読に失敗した場合はErrSubscriptionFailedを返す", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		platform.pm.err = errors.New("AbortError: push service not available")
		store := &fakeStore{}

		err := NewManager(platform, store, &fakeToaster{}, testVAPIDPublicKey).SubscribeUser(t.Context())
		if !errors.Is(err, ErrSubscriptionFailed) {
			t.Errorf("ErrSubscriptionFailedが返されるべき: %v", err)
		}
		if len(store.saved) != 0 {
			t.Error("購読が保存された")
		}
	})

	t.Run("Service Workerが利用できない場合はErrSubscriptionFailedを返す", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		platform.readyErr = errors.New("no registration")

		err := NewManager(platform, &fakeStore{}, &fakeToaster{}, testVAPIDPublicKey).SubscribeUser(t.Context())
		if !errors.Is(err, ErrSubscriptionFailed) {
			t.Errorf("ErrSubscriptionFailedが返されるべき: %v", err)
		}
	})

	t.Run("VAPID公開鍵が不正な場合は購読しない", func(t *testing.T) {
		t.Parallel()

		platform := newTestPlatform()
		err := NewManager(platform, &fakeStore{}, &fakeToaster{}, "invalid").SubscribeUser(t.Context())
		if !errors.Is(err, ErrSubscriptionFailed) {
			t.Errorf("ErrSubscriptionFailedが返されるべき: %v", err)
		}
		if platform.pm.opts.ApplicationServerKey != nil {
			t.Error("プッシュサービスへの購読が行われた")
		}
	})

	t.Run("ユーザーIDが取得できない場合は匿名で購読する", func(t *testing.T) {
		t.Parallel()

		store := &fakeStore{}
		m := NewManager(newTestPlatform(), store, &fakeToaster{}, testVAPIDPublicKey, WithIdentity(func(context.Context) (string, error) {
			return "", errors.New("session expired")
		}))
		if err := m.SubscribeUser(t.Context()); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
		if len(store.saved) != 1 || store.saved[0].OwnerRef != "" {
			t.Errorf("匿名で保存されていない: %+v", store.saved)
		}
	})
}
