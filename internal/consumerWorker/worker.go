package consumerWorker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"eventboard/internal/model"
	"eventboard/internal/rabbit"
)

// Thumbnailer is the slice of the media processor the worker needs.
type Thumbnailer interface {
	Process(sourcePath string) (string, error)
}

// Strategy bounds per-job processing attempts. Exhausted jobs end up on the
// dead-letter queue via the broker client.
var Strategy = retry.Strategy{Attempts: 3, Delay: time.Second, Backoff: 2}

// Reader drains media jobs off the queue independently of request handling.
type Reader struct {
	RMQ       *rabbit.Client
	processor Thumbnailer
	done      chan struct{}
	cancel    context.CancelFunc
}

func NewReader(rmq *rabbit.Client, processor Thumbnailer) *Reader {
	return &Reader{
		RMQ:       rmq,
		processor: processor,
		done:      make(chan struct{}),
	}
}

// Handler processes one queued media job. Exported so the consuming loop and
// tests share the same code path.
func (r *Reader) Handler(body []byte) error {
	var msg model.MediaJobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		zlog.Logger.Error().
			Err(err).
			Msgf("Failed to unmarshal media job: %s", string(body))
		return err
	}

	zlog.Logger.Info().
		Int64("event_id", msg.EventID).
		Str("source", msg.SourcePath).
		Msg("Received media job")

	var thumbPath string
	err := retry.Do(func() error {
		var perr error
		thumbPath, perr = r.processor.Process(msg.SourcePath)
		return perr
	}, Strategy)
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Int64("event_id", msg.EventID).
			Str("source", msg.SourcePath).
			Msg("Media job failed after retries")
		return err
	}

	zlog.Logger.Info().
		Int64("event_id", msg.EventID).
		Str("thumbnail", thumbPath).
		Msg("Media job completed")
	return nil
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("Media worker started")

	go func() {
		defer close(r.done)

		if err := r.RMQ.Consume(r.Handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("Media worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
