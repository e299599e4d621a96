package asset

import (
	"context"
	"sync"

	"github.com/robfig/cron"
	"github.com/rs/zerolog"
)

const batchSize = 50

// Worker drains pending cleanup tasks on a cron schedule and whenever the
// queue is woken after a deletion.
type Worker struct {
	queue     *Queue
	destroyer Destroyer
	logger    zerolog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	stop chan struct{}
	done chan struct{}

	// cron.Stop does not wait for jobs it already started; running does.
	state    sync.Mutex
	stopping bool
	running  sync.WaitGroup
}

func NewWorker(queue *Queue, destroyer Destroyer, logger zerolog.Logger) *Worker {
	return &Worker{
		queue:     queue,
		destroyer: destroyer,
		logger:    logger.With().Str("component", "asset_cleanup").Logger(),
	}
}

// RunOnce processes one batch. A failing task is recorded and does not stop
// the rest of the batch.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	tasks, err := w.queue.Pending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, task := range tasks {
		if err := w.destroyer.Destroy(ctx, task.PublicID); err != nil {
			w.logger.Warn().Err(err).
				Str("task_id", task.ID).
				Str("public_id", task.PublicID).
				Int("attempt", task.Attempts+1).
				Msg("asset cleanup failed")
			if markErr := w.queue.MarkFailed(ctx, task.ID, err); markErr != nil {
				return done, markErr
			}
			continue
		}
		if err := w.queue.MarkDone(ctx, task.ID); err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

func (w *Worker) Start(schedule string) error {
	c := cron.New()
	if err := c.AddFunc(schedule, w.run); err != nil {
		return err
	}
	w.cron = c
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	w.state.Lock()
	w.stopping = false
	w.state.Unlock()

	c.Start()
	go w.listen()
	w.logger.Info().Str("schedule", schedule).Msg("asset cleanup worker started")
	return nil
}

func (w *Worker) Stop() {
	if w.cron == nil {
		return
	}
	w.cron.Stop()
	close(w.stop)
	<-w.done

	w.state.Lock()
	w.stopping = true
	w.state.Unlock()
	w.running.Wait()
	w.cron = nil
}

func (w *Worker) listen() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.queue.wake:
			w.run()
		}
	}
}

func (w *Worker) run() {
	w.state.Lock()
	if w.stopping {
		w.state.Unlock()
		return
	}
	w.running.Add(1)
	w.state.Unlock()
	defer w.running.Done()

	n, err := w.RunOnce(context.Background())
	if err != nil {
		w.logger.Error().Err(err).Msg("asset cleanup run")
		return
	}
	if n > 0 {
		w.logger.Info().Int("removed", n).Msg("asset cleanup run")
	}
}
