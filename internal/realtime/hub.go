package realtime

import (
	"context"
	"sync"

	"github.com/zulramsey7/GengKubur/pkg/event"
)

// defaultBufferSize は購読者ごとのイベントバッファ数。
const defaultBufferSize = 16

// Publisher は変更イベントを配信する。
type Publisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// Feed は変更イベントの購読を提供する。
// 戻り値のチャネルは購読の解除後に閉じられる。解除関数は何度呼び出してもよい。
type Feed interface {
	Listen(ctx context.Context, channel string, filter event.Filter) (<-chan event.Event, func(), error)
}

// Hub はプロセス内でチャネルごとに変更イベントを配るPub/Sub。
// 受信が追いつかない購読者へのイベントは破棄する。
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[int64]*subscriber
	nextID      int64
	bufferSize  int
}

// subscriber はHubに登録された1つの購読。
type subscriber struct {
	id     int64
	filter event.Filter
	stream chan event.Event
}

// NewHub は新しいHubを生成する。
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[int64]*subscriber),
		bufferSize:  defaultBufferSize,
	}
}

// Subscribe はチャネルの変更イベントのうちフィルタに一致するものを受け取る。
// ctxのキャンセルまたは戻り値の解除関数で購読を解放し、チャネルを閉じる。
func (h *Hub) Subscribe(ctx context.Context, channel string, filter event.Filter) (<-chan event.Event, func()) {
	sub := &subscriber{
		filter: filter,
		stream: make(chan event.Event, h.bufferSize),
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	if _, ok := h.subscribers[channel]; !ok {
		h.subscribers[channel] = make(map[int64]*subscriber)
	}
	h.subscribers[channel][sub.id] = sub
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.unregister(channel, sub.id)
		})
	}
	stop := context.AfterFunc(ctx, release)
	return sub.stream, func() {
		stop()
		release()
	}
}

// Listen はSubscribeをFeedとして提供する。
func (h *Hub) Listen(ctx context.Context, channel string, filter event.Filter) (<-chan event.Event, func(), error) {
	ctx, stop := context.WithCancel(ctx)
	stream, cancel := h.Subscribe(ctx, channel, filter)
	return stream, func() {
		cancel()
		stop()
	}, nil
}

// Publish はイベントをそのチャネルの購読者へ配る。送信はブロックしない。
func (h *Hub) Publish(_ context.Context, e event.Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subscribers[e.Channel] {
		if !sub.filter.Match(e) {
			continue
		}
		select {
		case sub.stream <- e:
		default:
			eventsDroppedTotal.Inc()
		}
	}
	return nil
}

// SubscriberCount はチャネルの現在の購読者数を返す。
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[channel])
}

// unregister は購読を削除してチャネルを閉じる。
// Publishは読み取りロック中に送信するため、書き込みロック下で閉じれば競合しない。
func (h *Hub) unregister(channel string, id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[channel]
	sub, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	if len(subs) == 0 {
		delete(h.subscribers, channel)
	}
	close(sub.stream)
}
