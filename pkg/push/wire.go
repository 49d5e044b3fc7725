package push

// Permission はシステム通知の表示許可の状態。
type Permission string

const (
	// PermissionDefault はユーザーがまだ選択していないことを表す。
	PermissionDefault Permission = "default"
	// PermissionGranted は表示が許可されていることを表す。
	PermissionGranted Permission = "granted"
	// PermissionDenied は表示が拒否されていることを表す。
	PermissionDenied Permission = "denied"
)

// CodeAlreadySubscribed は同じエンドポイントが既に保存されていることを表すエラーコード。
const CodeAlreadySubscribed = "already_subscribed"

// SubscriptionKeys はブラウザのPushSubscription.toJSON()と同じ形の鍵の組。
type SubscriptionKeys struct {
	// P256dh は標準base64の公開鍵素材。
	P256dh string `json:"p256dh"`
	// Auth は標準base64の共有シークレット。
	Auth string `json:"auth"`
}

// SubscribeRequest は購読登録APIのリクエストボディ。
type SubscribeRequest struct {
	// Endpoint はプッシュサービスのURL。
	Endpoint string `json:"endpoint"`
	// Keys は暗号化用の鍵の組。
	Keys SubscriptionKeys `json:"keys"`
	// OwnerRef は購読したユーザーへの参照。
	OwnerRef string `json:"owner_ref,omitempty"`
}

// Subscription はリクエストを保存用の購読に変換する。IDと作成日時は付与しない。
func (r SubscribeRequest) Subscription() Subscription {
	return Subscription{
		Endpoint: r.Endpoint,
		P256dh:   r.Keys.P256dh,
		Auth:     r.Keys.Auth,
		OwnerRef: r.OwnerRef,
	}
}

// VAPIDPublicKeyResponse はVAPID公開鍵取得APIのレスポンスボディ。
type VAPIDPublicKeyResponse struct {
	// PublicKey はURLセーフbase64の公開鍵。
	PublicKey string `json:"public_key"`
}
