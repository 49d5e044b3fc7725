package notification

import (
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zulramsey7/GengKubur/internal/realtime"
	"github.com/zulramsey7/GengKubur/pkg/event"
)

// parseFilter はクエリパラメータから変更フィードのフィルタを組み立てる。
// eventが "*" または未指定の場合はすべての変更種類に一致する。
func parseFilter(c *gin.Context) (event.Filter, bool) {
	filter := event.Filter{Table: event.Table(c.Query("table"))}

	switch t := event.Type(strings.ToUpper(c.Query("event"))); t {
	case "", "*":
	case event.TypeInsert, event.TypeUpdate, event.TypeDelete:
		filter.Type = t
	default:
		return event.Filter{}, false
	}
	return filter, true
}

// handleStream は変更フィードをServer-Sent Eventsで配信するハンドラ。
// クライアントが切断すると購読を解放する。
func (s *Server) handleStream() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, ok := parseFilter(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "eventはINSERT、UPDATE、DELETE、*のいずれかで指定してください"})
			return
		}

		ctx := c.Request.Context()
		channel := c.Param("channel")
		stream, cancel := s.hub.Subscribe(ctx, channel, filter)
		defer cancel()

		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
		c.Writer.Flush()

		log.Printf("[Realtime] 変更フィードに接続しました: channel=%s, filter=%+v", channel, filter)

		c.Stream(func(_ io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case e, ok := <-stream:
				if !ok {
					return false
				}
				b, err := event.Marshal(&e)
				if err != nil {
					log.Printf("[Realtime] 変更イベントのシリアライズに失敗: %v", err)
					return true
				}
				c.SSEvent(realtime.SSEEventChange, string(b))
				return true
			case <-ticker.C:
				c.SSEvent(realtime.SSEEventHeartbeat, "ping")
				return true
			}
		})

		log.Printf("[Realtime] 変更フィードから切断しました: channel=%s", channel)
	}
}
