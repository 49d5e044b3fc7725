package push

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultTitle はペイロードが欠落・破損している場合に表示するタイトル。
	DefaultTitle = "Geng Kubur"
	// DefaultMessage はペイロードが欠落・破損している場合に表示するメッセージ。
	DefaultMessage = "Notifikasi baru!"
	// DefaultIcon は通知アイコンが未指定の場合に使用するサイトアイコン。
	DefaultIcon = "/logo.svg"
	// DefaultURL は通知クリック時の遷移先が未指定の場合に使用するサイトルート。
	DefaultURL = "/"
)

var (
	// ErrMalformedSubscription は購読レコードの必須フィールドが欠けていることを表す。
	ErrMalformedSubscription = errors.New("購読情報が不正です")
	// ErrInvalidPayload は通知ペイロードの必須フィールドが欠けていることを表す。
	ErrInvalidPayload = errors.New("通知ペイロードが不正です")
)

// Subscription はブラウザ1つ分のプッシュ購読を表す。
// 作成後は変更しない。鍵のローテーションは新しい行として作成される。
type Subscription struct {
	// ID は購読の一意識別子（UUID）。
	ID string `json:"id"`
	// Endpoint はプッシュサービスのチャネルを示すURL。購読ごとに一意。
	Endpoint string `json:"endpoint"`
	// P256dh は暗号化に使う公開鍵素材（標準base64）。
	P256dh string `json:"p256dh"`
	// Auth は暗号化に使う共有シークレット（標準base64）。
	Auth string `json:"auth"`
	// OwnerRef は認証済みユーザーへの弱い参照。未ログインの場合は空。
	OwnerRef string `json:"owner_ref,omitempty"`
	// CreatedAt は購読が保存された日時。
	CreatedAt time.Time `json:"created_at"`
}

// Validate は暗号化対象を組み立てるのに必要な3フィールドが揃っているか検証する。
func (s Subscription) Validate() error {
	switch {
	case s.Endpoint == "":
		return fmt.Errorf("%w: endpointが空です", ErrMalformedSubscription)
	case s.P256dh == "":
		return fmt.Errorf("%w: p256dhが空です", ErrMalformedSubscription)
	case s.Auth == "":
		return fmt.Errorf("%w: authが空です", ErrMalformedSubscription)
	}
	return nil
}

// Payload はWeb Pushメッセージ本文として暗号化して送るJSON。
// Service Workerのpushハンドラがこの形式を解釈する。
type Payload struct {
	// Title は通知の見出し。
	Title string `json:"title"`
	// Message は通知の本文。
	Message string `json:"message"`
	// Icon は通知アイコンのURL。
	Icon string `json:"icon,omitempty"`
	// URL は通知クリック時に開くURL。
	URL string `json:"url,omitempty"`
}

// DefaultPayload はペイロードが読めない場合の既定値を返す。
func DefaultPayload() Payload {
	return Payload{Title: DefaultTitle, Message: DefaultMessage}
}

// Validate はタイトルとメッセージが指定されているか検証する。
func (p Payload) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("%w: titleが空です", ErrInvalidPayload)
	}
	if p.Message == "" {
		return fmt.Errorf("%w: messageが空です", ErrInvalidPayload)
	}
	return nil
}

// WithDefaults はアイコンと遷移先の既定値を補ったコピーを返す。
func (p Payload) WithDefaults() Payload {
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.URL == "" {
		p.URL = DefaultURL
	}
	return p
}

// PushStatus は通知レコードに対するプッシュ配信の状態を表す。
type PushStatus string

const (
	// PushStatusPending はレコード保存後、配信結果がまだ無いことを表す。
	PushStatusPending PushStatus = "pending"
	// PushStatusSent は配信処理が完了したことを表す（個別の失敗は含みうる）。
	PushStatusSent PushStatus = "sent"
	// PushStatusFailed は配信処理そのものが失敗したことを表す。
	PushStatusFailed PushStatus = "failed"
)

// NotificationRecord は管理者が作成した1件の通知（履歴）を表す。
// このサブシステムでは削除しない。
type NotificationRecord struct {
	// ID は通知の一意識別子（UUID）。
	ID string `json:"id"`
	// Title は通知の見出し。
	Title string `json:"title"`
	// Message は通知の本文。
	Message string `json:"message"`
	// Icon は通知アイコンのURL。
	Icon string `json:"icon,omitempty"`
	// URL は通知クリック時に開くURL。
	URL string `json:"url,omitempty"`
	// PushStatus はプッシュ配信の状態。
	PushStatus PushStatus `json:"push_status"`
	// Attempted は配信を試みた購読数。
	Attempted int `json:"attempted"`
	// Delivered は配信に成功した購読数。
	Delivered int `json:"delivered"`
	// Gone は失効として削除した購読数。
	Gone int `json:"gone"`
	// Failed は一時的な失敗として残した購読数。
	Failed int `json:"failed"`
	// CreatedAt は通知が作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// Payload は通知レコードからワイヤペイロードを作る。
func (r NotificationRecord) Payload() Payload {
	return Payload{Title: r.Title, Message: r.Message, Icon: r.Icon, URL: r.URL}
}
