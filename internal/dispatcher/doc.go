// Package dispatcher はWeb Push通知のファンアウト配信を提供する。
//
// 1件の通知ペイロードを、保存されているすべての購読へ並行に暗号化送信する。
// 購読ごとの失敗は互いに独立して扱い、プッシュサービスが「失効」（404/410）を
// 返した購読はその場で削除する。それ以外の失敗はログに記録して次回に持ち越す。
// 配信全体が失敗するのは、購読一覧を読み込めなかった場合と送信者が未設定の場合だけである。
package dispatcher
