package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// New は新しい変更イベントを生成する。
// recordには変更後の行を表す構造体を渡す。JSON形式にシリアライズされる。
func New(channel string, table Table, eventType Type, record any) (*Event, error) {
	var raw json.RawMessage
	if record != nil {
		jsonData, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("イベントデータのシリアライズに失敗: %w", err)
		}
		raw = jsonData
	}

	return &Event{
		ID:        uuid.New().String(),
		Channel:   channel,
		Table:     table,
		Type:      eventType,
		New:       raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DecodeRecord はイベントのNewフィールドを指定された型にデシリアライズする。
func DecodeRecord[T any](e *Event) (*T, error) {
	if len(e.New) == 0 {
		return nil, fmt.Errorf("イベント %s に行データがありません", e.ID)
	}
	var record T
	if err := json.Unmarshal(e.New, &record); err != nil {
		return nil, fmt.Errorf("イベントデータのデシリアライズに失敗: %w", err)
	}
	return &record, nil
}

// Marshal はイベントを配信用のJSONに変換する。
func Marshal(e *Event) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	return b, nil
}

// Unmarshal は配信されたJSONをイベントに戻す。
func Unmarshal(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("イベントのデシリアライズに失敗: %w", err)
	}
	return &e, nil
}
