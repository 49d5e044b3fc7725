package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	_ "modernc.org/sqlite"

	"github.com/zulramsey7/GengKubur/internal/dispatcher"
	notificationdb "github.com/zulramsey7/GengKubur/internal/notification/db"
	"github.com/zulramsey7/GengKubur/internal/realtime"
	"github.com/zulramsey7/GengKubur/pkg/event"
	"github.com/zulramsey7/GengKubur/pkg/middleware"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

const (
	// defaultHistoryLimit は通知履歴の既定の取得件数。
	defaultHistoryLimit = 50
	// maxHistoryLimit は通知履歴の最大取得件数。
	maxHistoryLimit = 200
	// dispatchTimeout は1回の配信全体に許す時間。
	dispatchTimeout = 2 * time.Minute
	// heartbeatInterval は変更フィードの接続維持イベントの間隔。
	heartbeatInterval = 25 * time.Second
)

// Server は通知サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はsqlcが生成したクエリ実行オブジェクト。
	queries *notificationdb.Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// dispatcher は全購読へのファンアウト配信を行う。
	dispatcher *dispatcher.Dispatcher
	// hub はプロセス内の変更フィード。
	hub *realtime.Hub
	// publisher は変更イベントの発行先。Redisが設定されていればRedisRelayになる。
	publisher realtime.Publisher
	// relay はRedisを介したインスタンス間の中継。未設定の場合はnil。
	relay *realtime.RedisRelay
	// redis はRedisクライアント。未設定の場合はnil。
	redis *redis.Client
	// vapidPublicKey はクライアントに配布するVAPID公開鍵。
	vapidPublicKey string
	// heartbeat は変更フィードの接続維持イベントの間隔。
	heartbeat time.Duration
}

// NewServer は新しい通知サーバーを生成する。
// SQLiteデータベースの初期化とマイグレーション、VAPID鍵の検証を行う。
func NewServer(cfg Config) (*Server, error) {
	sender, err := dispatcher.NewWebPushSender(cfg.VAPID, dispatcher.WithTTL(cfg.PushTTL))
	if err != nil {
		return nil, fmt.Errorf("プッシュ送信者の初期化に失敗: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabasePath)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(context.Background(), sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	s, err := newServer(cfg, sqlDB, sender)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		s.relay = realtime.NewRedisRelay(s.redis, s.hub)
		s.publisher = s.relay
		log.Printf("[Realtime] Redisリレーを使用します: %s", cfg.RedisAddr)
	}

	return s, nil
}

// newServer はデータベースと送信者を受け取ってサーバーを組み立てる。
func newServer(cfg Config, sqlDB *sql.DB, sender dispatcher.Sender) (*Server, error) {
	queries := notificationdb.New(sqlDB)
	hub := realtime.NewHub()

	reg := prometheus.NewRegistry()
	for _, register := range []func(prometheus.Registerer) error{
		middleware.RegisterMetrics,
		dispatcher.RegisterMetrics,
		realtime.RegisterMetrics,
	} {
		if err := register(reg); err != nil {
			return nil, fmt.Errorf("メトリクスの登録に失敗: %w", err)
		}
	}
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.Metrics())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:  router,
		port:    cfg.Port,
		queries: queries,
		db:      sqlDB,
		dispatcher: dispatcher.New(&subscriptionStore{queries: queries}, sender,
			dispatcher.WithConcurrency(cfg.PushConcurrency),
			dispatcher.WithBatchSize(cfg.PushBatchSize),
		),
		hub:            hub,
		publisher:      hub,
		vapidPublicKey: cfg.VAPID.PublicKey,
		heartbeat:      heartbeatInterval,
	}
	s.setupRoutes(cfg.JWTSecret, reg)

	return s, nil
}

// Run はHTTPサーバーを起動する。Redisリレーが設定されていれば合わせて起動する。
func (s *Server) Run() error {
	if s.relay != nil {
		go func() {
			if err := s.relay.Run(context.Background()); err != nil {
				log.Printf("[Realtime] Redisリレーが停止しました: %v", err)
			}
		}()
	}
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// Close はデータベースとRedisの接続を閉じる。
func (s *Server) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.db.Close())
	return errors.Join(errs...)
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes(jwtSecret string, reg *prometheus.Registry) {
	subscribeLimiter := middleware.NewRateLimiter(rate.Every(time.Second), 10)

	api := s.router.Group("/api/v1")
	{
		pushAPI := api.Group("/push")
		{
			// VAPID公開鍵取得
			pushAPI.GET("/vapid-public-key", s.handleVAPIDPublicKey())

			// 購読の登録と解除（未ログインでも可、トークンがあれば所有者を記録）
			subscriptions := pushAPI.Group("/subscriptions")
			subscriptions.Use(subscribeLimiter.Middleware(), middleware.OptionalJWTAuth(jwtSecret))
			{
				subscriptions.POST("", s.handleSubscribe())
				subscriptions.DELETE("", s.handleUnsubscribe())
			}

			// 配信の直接呼び出し（管理者のみ）
			pushAPI.POST("/send", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleAdmin), s.handleSend())
		}

		notifications := api.Group("/notifications")
		{
			// 通知履歴
			notifications.GET("", s.handleList())
			notifications.GET("/:id", s.handleGet())
			// 通知の作成と配信（管理者のみ）
			notifications.POST("", middleware.JWTAuth(jwtSecret), middleware.RequireRole(middleware.RoleAdmin), s.handleCreate())
		}

		// 変更フィード（Server-Sent Events）
		api.GET("/realtime/:channel", s.handleStream())
	}

	// メトリクス
	s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
}

// createRequest は通知作成リクエストのJSON構造。
type createRequest struct {
	// Title は通知のタイトル。
	Title string `json:"title" binding:"required"`
	// Message は通知メッセージ。
	Message string `json:"message" binding:"required"`
	// Icon は通知アイコンのURL。
	Icon string `json:"icon"`
	// URL は通知クリック時の遷移先。
	URL string `json:"url"`
}

// createResponse は通知作成のレスポンス。
// 保存に成功していれば配信に失敗しても201を返し、push_okで区別する。
type createResponse struct {
	// ID は作成された通知のID。
	ID string `json:"id"`
	// Saved は通知レコードが保存されたかどうか。
	Saved bool `json:"saved"`
	// PushOK は配信処理が完了したかどうか。
	PushOK bool `json:"push_ok"`
	// PushError は配信処理が失敗した場合のエラーメッセージ。
	PushError string `json:"push_error,omitempty"`
	dispatcher.Result
}

// handleCreate は通知レコードを保存し、変更フィードへの発行と全購読への配信を行うハンドラ。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		ctx := c.Request.Context()
		notificationID := uuid.New().String()

		if err := s.queries.CreateNotification(ctx, notificationdb.CreateNotificationParams{
			ID:      notificationID,
			Title:   req.Title,
			Message: req.Message,
			Icon:    req.Icon,
			Url:     req.URL,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の作成に失敗しました"})
			log.Printf("通知作成エラー: %v", err)
			return
		}

		row, err := s.queries.GetNotificationByID(ctx, notificationID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "作成した通知の取得に失敗しました"})
			log.Printf("通知取得エラー: %v", err)
			return
		}
		rec := toNotificationRecord(row)

		// 変更フィードへの発行に失敗しても通知自体は成功として扱う
		s.publishInsert(ctx, rec)

		// 管理画面の接続が切れても配信と結果の記録は最後まで行う
		dispatchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
		defer cancel()

		result, dispatchErr := s.dispatcher.Dispatch(dispatchCtx, rec.Payload())
		status := push.PushStatusSent
		if dispatchErr != nil {
			status = push.PushStatusFailed
			log.Printf("[Push] 通知 %s の配信に失敗: %v", notificationID, dispatchErr)
		}

		if err := s.queries.UpdateNotificationDelivery(dispatchCtx, notificationdb.UpdateNotificationDeliveryParams{
			PushStatus: string(status),
			Attempted:  int64(result.Attempted),
			Delivered:  int64(result.Delivered),
			Gone:       int64(result.Gone),
			Failed:     int64(result.Failed),
			ID:         notificationID,
		}); err != nil {
			log.Printf("通知 %s の配信状態の記録に失敗: %v", notificationID, err)
		}

		resp := createResponse{
			ID:     notificationID,
			Saved:  true,
			PushOK: dispatchErr == nil,
			Result: result,
		}
		if dispatchErr != nil {
			resp.PushError = dispatchErr.Error()
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// publishInsert は通知テーブルへの挿入を変更フィードに発行する。
func (s *Server) publishInsert(ctx context.Context, rec push.NotificationRecord) {
	e, err := event.New(event.ChannelNotifications, event.TableNotifications, event.TypeInsert, rec)
	if err != nil {
		log.Printf("[Realtime] 変更イベントの生成に失敗: %v", err)
		return
	}
	if err := s.publisher.Publish(ctx, *e); err != nil {
		log.Printf("[Realtime] 変更イベントの発行に失敗: %v", err)
	}
}

// handleList は通知履歴を新しい順に返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := defaultHistoryLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitは正の整数で指定してください"})
				return
			}
			limit = min(n, maxHistoryLimit)
		}

		rows, err := s.queries.ListNotifications(c.Request.Context(), int64(limit))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知一覧の取得に失敗しました"})
			log.Printf("通知一覧取得エラー: %v", err)
			return
		}

		records := make([]push.NotificationRecord, 0, len(rows))
		for _, row := range rows {
			records = append(records, toNotificationRecord(row))
		}
		c.JSON(http.StatusOK, records)
	}
}

// handleGet は指定IDの通知を返すハンドラ。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := s.queries.GetNotificationByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, gin.H{"error": "通知が見つかりません"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "通知の取得に失敗しました"})
			log.Printf("通知取得エラー: %v", err)
			return
		}
		c.JSON(http.StatusOK, toNotificationRecord(row))
	}
}
