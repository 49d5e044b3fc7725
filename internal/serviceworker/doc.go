// Package serviceworker はプッシュ通知を受け取るバックグラウンドワーカーの実行環境を提供する。
//
// ワーカーはinstalling、waiting、activeの順に状態を遷移する。インストール後は待機せずに
// 直ちに有効化し、古いキャッシュ世代を削除して既存のクライアントを制御下に置く。
// イベントの種類ごとにハンドラを登録し、ハンドラがWaitUntilで登録した処理が
// すべて終わるまでディスパッチを保持する。ハンドラのエラーやパニックはログに記録し、
// ワーカーの外へは伝播させない。
package serviceworker
