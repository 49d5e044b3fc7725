package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// defaultIdleTimeout はリクエストが途絶えたクライアントのリミッターを破棄するまでの時間。
// バケットが満杯に戻る時間より長ければ、破棄しても制限の結果は変わらない。
const defaultIdleTimeout = 10 * time.Minute

// RateLimiter はクライアントIPごとにトークンバケットでリクエストを制限する。
type RateLimiter struct {
	// limiters はクライアントIPごとのリミッター。
	limiters map[string]*clientLimiter
	// mu はlimitersへの並行アクセスを保護するミューテックス。
	mu sync.Mutex
	// r は1秒あたりに補充されるトークン数。
	r rate.Limit
	// burst はバケットの容量。
	burst int
	// idleTimeout を過ぎて使われていないリミッターは掃除の対象になる。
	idleTimeout time.Duration
	// lastSweep は最後に掃除した時刻。
	lastSweep time.Time
	// now は現在時刻を返す。
	now func() time.Time
}

// clientLimiter は1クライアント分のリミッターと最終利用時刻。
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterOption はRateLimiterの設定を変更する。
type RateLimiterOption func(*RateLimiter)

// WithIdleTimeout は使われていないリミッターを破棄するまでの時間を変更する。
func WithIdleTimeout(d time.Duration) RateLimiterOption {
	return func(rl *RateLimiter) {
		if d > 0 {
			rl.idleTimeout = d
		}
	}
}

// NewRateLimiter は新しいRateLimiterを生成する。
func NewRateLimiter(r rate.Limit, burst int, opts ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiters:    make(map[string]*clientLimiter),
		r:           r,
		burst:       burst,
		idleTimeout: defaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(rl)
	}
	rl.lastSweep = rl.now()
	return rl
}

// limiter はキーに対応するリミッターを返す。無ければ作成する。
// idleTimeoutごとに一度、しばらく使われていないリミッターを削除する。
func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idleTimeout {
		for k, cl := range rl.limiters {
			if now.Sub(cl.lastSeen) >= rl.idleTimeout {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	cl, ok := rl.limiters[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// size は保持しているリミッターの数を返す。
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// Middleware はレート制限を適用するGinミドルウェアを返す。
// 制限を超えたリクエストは429で拒否する。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			httpRateLimitRejectionsTotal.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "リクエストが多すぎます。しばらくしてから再試行してください",
			})
			return
		}
		c.Next()
	}
}
