// Package middleware は通知サービスのGin HTTP APIで使用する共通ミドルウェアを提供する。
//
// JWT認証と管理者ロールの検証、パニックリカバリ、CORS設定、
// クライアントIP単位のレート制限、Prometheusへのリクエストメトリクス記録を含む。
package middleware
