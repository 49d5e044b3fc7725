// Package subscriber はクライアント側のプッシュ購読管理を提供する。
//
// 通知の表示許可を求め、Service Workerの準備を待ってプッシュサービスと購読を確立し、
// その結果を購読ストアに保存する。ブラウザ固有の機能はPlatformとPushManagerとして
// 抽象化しているため、実機以外でも同じ手順を検証できる。
// 失敗時の自動リトライはしない。
package subscriber
