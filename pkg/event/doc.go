// Package event はデータベース変更フィード（change feed）のイベント表現を提供する。
//
// 通知レコードの挿入などの行変更を、チャネル名・テーブル名・変更種別と
// 変更後の行（JSON）の組として配信する。購読側はFilterで必要な変更だけを受け取る。
package event
