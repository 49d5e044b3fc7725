// Package httpclient は通知サービスと通信するHTTPクライアントを提供する。
//
// 購読情報の保存、管理者による通知送信、変更フィード（Server-Sent Events）の
// ストリーム受信など、クライアント側コンポーネントの通信パターンを統一する。
// 2xx以外の応答は StatusError として返し、呼び出し側がステータスで分岐できるようにする。
package httpclient
