package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
)

var ErrPublisherClosed = errors.New("パブリッシャーは停止済みです")

// channel は Publisher が使う amqp.Channel の操作
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// connection は Publisher が保持する接続
type connection interface {
	Close() error
}

// Publisher は予約ドメインイベントを耐久キューへ配信する
type Publisher struct {
	url   string
	queue string

	mu      sync.Mutex
	conn    connection
	ch      channel
	closed  bool
	connect func() error
}

// NewPublisher はブローカーへ接続し、キューを宣言する
func NewPublisher(url, queue string) (*Publisher, error) {
	p := &Publisher{url: url, queue: queue}
	p.connect = p.dial
	if err := p.dial(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("RabbitMQ接続に失敗: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("チャネル作成に失敗: %w", err)
	}
	// ブローカー再起動後もメッセージを残すため durable
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("キュー宣言に失敗: %w", err)
	}
	p.conn = conn
	p.ch = ch
	return nil
}

// Publish はイベントをJSONで永続配信する
// チャネルが閉じていれば一度だけ再接続する
func (p *Publisher) Publish(ctx context.Context, event reservation.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのエンコードに失敗: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(event.Type),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}

	// 前回の再接続に失敗していればここで接続し直す
	if p.ch == nil {
		if err := p.connect(); err != nil {
			return err
		}
	}

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	if errors.Is(err, amqp.ErrClosed) {
		logger.Warn("RabbitMQチャネルが閉じているため再接続します", zap.String("queue", p.queue))
		p.discard()
		if cerr := p.connect(); cerr != nil {
			return cerr
		}
		err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg)
	}
	if err != nil {
		return fmt.Errorf("イベント配信に失敗: %w", err)
	}

	logger.Debug("予約イベントを配信",
		zap.String("type", string(event.Type)),
		zap.Int64("reservation_id", event.ReservationID),
	)
	return nil
}

// discard は再接続前に古いチャネルと接続を閉じる。エラーは無視する
func (p *Publisher) discard() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close はチャネルと接続を閉じる
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
