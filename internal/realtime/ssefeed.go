package realtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/zulramsey7/GengKubur/pkg/event"
	"github.com/zulramsey7/GengKubur/pkg/httpclient"
)

const (
	// SSEEventChange は行変更を運ぶServer-Sent Eventsのイベント名。
	SSEEventChange = "change"
	// SSEEventHeartbeat は接続維持用のイベント名。
	SSEEventHeartbeat = "heartbeat"
)

// SSEFeed は通知サービスのServer-Sent Events変更フィードを購読するクライアント。
type SSEFeed struct {
	client *httpclient.Client
}

// NewSSEFeed は新しいSSEFeedを生成する。
func NewSSEFeed(client *httpclient.Client) *SSEFeed {
	return &SSEFeed{client: client}
}

// Listen はチャネルの変更フィードへ接続する。
// 接続が切れた場合はチャネルを閉じる。自動再接続はしない。
func (f *SSEFeed) Listen(ctx context.Context, channel string, filter event.Filter) (<-chan event.Event, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	body, err := f.client.Stream(ctx, StreamPath(channel, filter))
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("変更フィードへの接続に失敗: %w", err)
	}

	out := make(chan event.Event, defaultBufferSize)
	go func() {
		defer close(out)
		defer body.Close()

		err := readSSE(body, func(name, data string) {
			if name != SSEEventChange {
				return
			}
			e, err := event.Unmarshal([]byte(data))
			if err != nil {
				log.Printf("[Realtime] 変更イベントの解析に失敗: %v", err)
				return
			}
			if !filter.Match(*e) {
				return
			}
			select {
			case out <- *e:
			case <-ctx.Done():
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("[Realtime] 変更フィードの受信が終了しました: %v", err)
		}
	}()

	var once sync.Once
	return out, func() { once.Do(cancel) }, nil
}

// StreamPath は変更フィードのリクエストパスを組み立てる。
func StreamPath(channel string, filter event.Filter) string {
	q := url.Values{}
	if filter.Table != "" {
		q.Set("table", string(filter.Table))
	}
	if filter.Type != "" {
		q.Set("event", string(filter.Type))
	}

	path := "/api/v1/realtime/" + url.PathEscape(channel)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return path
}

// readSSE はServer-Sent Eventsのストリームを読み、イベントごとにfnを呼び出す。
// コメント行は無視し、空行でイベントを確定する。
func readSSE(r io.Reader, fn func(name, data string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		name string
		data []string
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				if name == "" {
					name = "message"
				}
				fn(name, strings.Join(data, "\n"))
			}
			name, data = "", nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			data = append(data, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}
