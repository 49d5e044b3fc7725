// Package push はWeb Push配信パイプラインで共有するデータモデルを提供する。
//
// ブラウザの購読情報（Subscription）、Web Pushのワイヤペイロード（Payload）、
// 管理者が作成する通知レコード（NotificationRecord）、VAPID鍵ペアを定義する。
// 購読の鍵素材は標準base64のテキストとして保存し、配信時に生のバイト列へ戻す。
package push
