package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zulramsey7/GengKubur/pkg/push"
)

const (
	// defaultBatchSize は購読一覧を1回に読み込む件数。
	defaultBatchSize = 500
	// defaultConcurrency は同時に実行する配信数の上限。
	defaultConcurrency = 64
)

var (
	// ErrNotConfigured は購読ストアまたは送信者が設定されていないことを表す。
	ErrNotConfigured = errors.New("ディスパッチャーが設定されていません")
	// ErrLoadSubscriptions は購読一覧を読み込めなかったことを表す。
	ErrLoadSubscriptions = errors.New("購読一覧の読み込みに失敗")
)

// Store はディスパッチャーが使う購読ストア。
type Store interface {
	// ListSubscriptionsAfter はIDがafterIDより大きい購読をID順に最大limit件返す。
	ListSubscriptionsAfter(ctx context.Context, afterID string, limit int) ([]push.Subscription, error)
	// DeleteSubscription は指定IDの購読を削除する。
	DeleteSubscription(ctx context.Context, id string) error
}

// Sender は購読1件へ暗号化済みのプッシュメッセージを届ける。
// プッシュサービスが2xx以外を返した場合は *DeliveryError を返す。
type Sender interface {
	Send(ctx context.Context, sub push.Subscription, payload []byte) error
}

// Result は1回の配信の集計結果。
type Result struct {
	// Attempted は配信を試みた購読数。
	Attempted int `json:"attempted"`
	// Delivered はプッシュサービスが受け付けた購読数。
	Delivered int `json:"delivered"`
	// Gone は失効として削除した購読数。
	Gone int `json:"gone"`
	// Failed は一時的な失敗として残した購読数。
	Failed int `json:"failed"`
}

// outcome は購読1件の配信結果の分類。
type outcome string

const (
	outcomeDelivered outcome = "delivered"
	outcomeGone      outcome = "gone"
	outcomeFailed    outcome = "failed"
)

// add は配信結果を集計に加える。
func (r *Result) add(o outcome) {
	r.Attempted++
	switch o {
	case outcomeDelivered:
		r.Delivered++
	case outcomeGone:
		r.Gone++
	case outcomeFailed:
		r.Failed++
	}
}

// Dispatcher は通知をすべての購読へファンアウトする。
// VAPID鍵などの送信者の設定は構築時に渡し、リクエストごとには持たない。
type Dispatcher struct {
	// store は購読ストア。
	store Store
	// sender はプッシュサービスへの送信者。
	sender Sender
	// batchSize は購読一覧を1回に読み込む件数。
	batchSize int
	// concurrency は同時に実行する配信数の上限。
	concurrency int
}

// Option はDispatcherの設定を変更する関数。
type Option func(*Dispatcher)

// WithBatchSize は購読一覧を1回に読み込む件数を設定する。0以下は無視する。
func WithBatchSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.batchSize = n
		}
	}
}

// WithConcurrency は同時に実行する配信数の上限を設定する。0以下は無視する。
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// New は新しいDispatcherを生成する。
func New(store Store, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:       store,
		sender:      sender,
		batchSize:   defaultBatchSize,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch はペイロードをすべての購読へ配信し、全件の結果が出揃ってから集計を返す。
// 同じ内容で再度呼び出すと、もう一度全件に配信する（重複排除はしない）。
func (d *Dispatcher) Dispatch(ctx context.Context, p push.Payload) (Result, error) {
	if d == nil || d.store == nil || d.sender == nil {
		return Result{}, ErrNotConfigured
	}
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Result{}, fmt.Errorf("ペイロードのシリアライズに失敗: %w", err)
	}

	start := time.Now()
	defer func() {
		dispatchDuration.Observe(time.Since(start).Seconds())
	}()

	var (
		mu     sync.Mutex
		result Result
		g      errgroup.Group
	)
	g.SetLimit(d.concurrency)

	record := func(o outcome) {
		deliveriesTotal.WithLabelValues(string(o)).Inc()
		mu.Lock()
		result.add(o)
		mu.Unlock()
	}

	var loadErr error
	after := ""
	for {
		batch, err := d.store.ListSubscriptionsAfter(ctx, after, d.batchSize)
		if err != nil {
			loadErr = fmt.Errorf("%w: %w", ErrLoadSubscriptions, err)
			break
		}

		for _, sub := range batch {
			g.Go(func() error {
				record(d.deliver(ctx, sub, body))
				return nil
			})
		}

		if len(batch) < d.batchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}

	// 読み込みに失敗した場合も、開始済みの配信は最後まで待つ
	_ = g.Wait()

	if loadErr != nil {
		dispatchFailuresTotal.Inc()
		log.Printf("[Push] 配信を中断しました: %v (attempted=%d)", loadErr, result.Attempted)
		return result, loadErr
	}

	log.Printf("[Push] 配信完了: attempted=%d, delivered=%d, gone=%d, failed=%d",
		result.Attempted, result.Delivered, result.Gone, result.Failed)
	return result, nil
}

// deliver は購読1件への配信を行い、結果を分類する。
// どのような失敗も呼び出し元へは伝播させない。
func (d *Dispatcher) deliver(ctx context.Context, sub push.Subscription, body []byte) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Push] 配信中にパニックが発生: endpoint=%s, panic=%v", shortEndpoint(sub.Endpoint), r)
			o = outcomeFailed
		}
	}()

	if err := sub.Validate(); err != nil {
		log.Printf("[Push] 不正な購読をスキップ: id=%s, error=%v", sub.ID, err)
		return outcomeFailed
	}

	err := d.sender.Send(ctx, sub, body)
	switch {
	case err == nil:
		return outcomeDelivered
	case IsGone(err):
		// 呼び出し元がキャンセルされても失効した購読の削除は完了させる
		if delErr := d.store.DeleteSubscription(context.WithoutCancel(ctx), sub.ID); delErr != nil {
			log.Printf("[Push] 失効した購読の削除に失敗: id=%s, error=%v", sub.ID, delErr)
		} else {
			subscriptionsPrunedTotal.Inc()
			log.Printf("[Push] 失効した購読を削除しました: id=%s", sub.ID)
		}
		return outcomeGone
	default:
		log.Printf("[Push] 送信に失敗: endpoint=%s, error=%v", shortEndpoint(sub.Endpoint), err)
		return outcomeFailed
	}
}

// shortEndpoint はログ出力用にエンドポイントを先頭50文字に切り詰める。
func shortEndpoint(endpoint string) string {
	return endpoint[:min(50, len(endpoint))]
}
