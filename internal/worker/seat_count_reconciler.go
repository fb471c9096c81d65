package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-concert-ticket-reservation/internal/pkg/logger"
)

// ReservedSeatsReconciler は予約数を有効な予約の件数に揃えるインターフェース
type ReservedSeatsReconciler interface {
	ReconcileReservedSeats(ctx context.Context) (int, error)
}

// SeatCountReconciler は予約数のずれを定期的に補正するワーカー
type SeatCountReconciler struct {
	concertService ReservedSeatsReconciler
	interval       time.Duration
	stopCh         chan struct{}
	doneCh         chan struct{}
	stopOnce       sync.Once
}

// NewSeatCountReconciler は新しいワーカーを作成
func NewSeatCountReconciler(cs ReservedSeatsReconciler, interval time.Duration) *SeatCountReconciler {
	return &SeatCountReconciler{
		concertService: cs,
		interval:       interval,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start はワーカーを開始。起動直後に1回補正する
func (w *SeatCountReconciler) Start(ctx context.Context) {
	logger.Info("予約数補正ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	w.reconcile(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("予約数補正ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			logger.Info("予約数補正ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.reconcile(ctx)
		}
	}
}

// Stop はワーカーを停止し、終了を待つ
func (w *SeatCountReconciler) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *SeatCountReconciler) reconcile(ctx context.Context) {
	log := logger.Get()
	log.Debug("予約数の補正開始")

	count, err := w.concertService.ReconcileReservedSeats(ctx)
	if err != nil {
		log.Error("予約数の補正失敗", zap.Error(err))
		return
	}

	if count > 0 {
		log.Warn("予約数のずれを補正", zap.Int("count", count))
	} else {
		log.Debug("予約数のずれなし")
	}
}
