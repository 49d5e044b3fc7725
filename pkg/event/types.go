package event

import (
	"encoding/json"
	"time"
)

// Table は変更が発生したテーブルを表す。
type Table string

const (
	// TableNotifications は通知レコードのテーブル。
	TableNotifications Table = "notifications"
	// TablePushSubscriptions はプッシュ購読のテーブル。
	TablePushSubscriptions Table = "push_subscriptions"
)

// Type は行変更の種類を表す。
type Type string

const (
	// TypeInsert は行が挿入されたことを表す。
	TypeInsert Type = "INSERT"
	// TypeUpdate は行が更新されたことを表す。
	TypeUpdate Type = "UPDATE"
	// TypeDelete は行が削除されたことを表す。
	TypeDelete Type = "DELETE"
)

// ChannelNotifications は通知テーブルの変更を流すチャネル名。
const ChannelNotifications = "public:notifications"

// Event は変更フィードで配信される1件の行変更。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Channel は配信先のチャネル名。
	Channel string `json:"channel"`
	// Table は変更されたテーブル。
	Table Table `json:"table"`
	// Type は変更の種類。
	Type Type `json:"type"`
	// New は変更後の行（JSON形式）。DELETEの場合は空。
	New json.RawMessage `json:"new,omitempty"`
	// CreatedAt はイベントが作成された日時。
	CreatedAt time.Time `json:"created_at"`
}

// Filter は購読側が受け取る変更を絞り込む条件。
// 空のフィールドは任意の値に一致する。
type Filter struct {
	// Table は対象テーブル。
	Table Table `json:"table,omitempty"`
	// Type は対象の変更種類。
	Type Type `json:"type,omitempty"`
}

// Match はイベントがフィルタ条件に一致するかを返す。
func (f Filter) Match(e Event) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if f.Type != "" && f.Type != e.Type {
		return false
	}
	return true
}
