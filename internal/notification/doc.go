// Package notification は通知サービスの内部実装を提供する。
//
// プッシュ購読の登録と解除、管理者による通知の作成とWeb Pushでのファンアウト配信、
// 通知履歴の参照、通知テーブルへの挿入を流すServer-Sent Eventsの変更フィードを提供する。
// 通知レコードの保存と配信は独立しており、配信に失敗しても保存は取り消さない。
// 配信結果はレコードのpush_statusと件数として残す。
package notification
