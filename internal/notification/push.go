package notification

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zulramsey7/GengKubur/internal/dispatcher"
	notificationdb "github.com/zulramsey7/GengKubur/internal/notification/db"
	"github.com/zulramsey7/GengKubur/pkg/middleware"
	"github.com/zulramsey7/GengKubur/pkg/push"
)

// handleVAPIDPublicKey はクライアントが購読に使うVAPID公開鍵を返すハンドラ。
func (s *Server) handleVAPIDPublicKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, push.VAPIDPublicKeyResponse{PublicKey: s.vapidPublicKey})
	}
}

// handleSubscribe はブラウザのプッシュ購読を保存するハンドラ。
// 同じエンドポイントが既にある場合は409とalready_subscribedを返す。
func (s *Server) handleSubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req push.SubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		sub := req.Subscription()
		if userID := middleware.GetUserID(c); userID != "" {
			sub.OwnerRef = userID
		}
		if err := validateSubscription(sub); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := uuid.New().String()
		n, err := s.queries.CreateSubscription(c.Request.Context(), notificationdb.CreateSubscriptionParams{
			ID:       id,
			Endpoint: sub.Endpoint,
			P256dh:   sub.P256dh,
			Auth:     sub.Auth,
			OwnerRef: sql.NullString{String: sub.OwnerRef, Valid: sub.OwnerRef != ""},
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "購読の保存に失敗しました"})
			log.Printf("購読保存エラー: %v", err)
			return
		}
		if n == 0 {
			c.JSON(http.StatusConflict, gin.H{
				"error": "このエンドポイントは既に購読済みです",
				"code":  push.CodeAlreadySubscribed,
			})
			return
		}

		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

// validateSubscription は購読の必須フィールドと鍵の形式を検証する。
func validateSubscription(sub push.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if _, err := push.DecodeKey(sub.P256dh); err != nil {
		return fmt.Errorf("%w: p256dh: %w", push.ErrMalformedSubscription, err)
	}
	if _, err := push.DecodeKey(sub.Auth); err != nil {
		return fmt.Errorf("%w: auth: %w", push.ErrMalformedSubscription, err)
	}
	return nil
}

// unsubscribeRequest は購読解除リクエストのJSON構造。
type unsubscribeRequest struct {
	// Endpoint は解除するプッシュサービスのURL。
	Endpoint string `json:"endpoint" binding:"required"`
}

// handleUnsubscribe は指定エンドポイントの購読を削除するハンドラ。
func (s *Server) handleUnsubscribe() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req unsubscribeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		n, err := s.queries.DeleteSubscriptionByEndpoint(c.Request.Context(), req.Endpoint)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "購読の削除に失敗しました"})
			log.Printf("購読削除エラー: %v", err)
			return
		}
		if n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "購読が見つかりません"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": true})
	}
}

// sendRequest は配信呼び出しのJSON構造。
// ペイロードを直接渡す形式と、挿入された行をrecordに包んだ形式の両方を受け付ける。
type sendRequest struct {
	push.Payload
	// Record は挿入された通知行。指定されていればこちらを優先する。
	Record *push.Payload `json:"record"`
}

// handleSend は全購読へ配信し、集計結果を返すハンドラ。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		payload := req.Payload
		if req.Record != nil {
			payload = *req.Record
		}

		result, err := s.dispatcher.Dispatch(c.Request.Context(), payload)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, push.ErrInvalidPayload) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"ok": false, "error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, sendResponse{OK: true, Result: result})
	}
}

// sendResponse は配信呼び出しのレスポンス。
type sendResponse struct {
	// OK は配信処理が完了したかどうか。
	OK bool `json:"ok"`
	dispatcher.Result
}
