// Package realtime は通知テーブルの変更フィードとRealtime Bridgeを提供する。
//
// サーバー側ではHubがチャネルごとに購読者を管理し、挿入された行をイベントとして配る。
// 複数インスタンス構成ではRedisRelayがRedisのPub/Subを介してHub同士をつなぐ。
// クライアント側ではSSEFeedがServer-Sent Eventsを受信し、Bridgeがアプリ内トーストと
// システム通知に変換する。配信はベストエフォートで、取りこぼした行は再送しない。
package realtime
