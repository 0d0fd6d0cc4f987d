package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"autodevhub/internal/model"
	"autodevhub/internal/repository"
)

// StoryEventWorker drains the story events queue into the audit table.
type StoryEventWorker struct {
	conn      *amqp.Connection
	repo      *repository.StoryEventRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStoryEventWorker(conn *amqp.Connection, repo *repository.StoryEventRepository, queueName string) *StoryEventWorker {
	return &StoryEventWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *StoryEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var event model.StoryEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					log.Error().Err(err).Msg("worker decode story event failed")
					_ = d.Nack(false, false)
					continue
				}
				// ID comes from the audit table, never from the wire.
				event.ID = 0

				if err := w.repo.Create(&event); err != nil {
					log.Error().Err(err).Uint("story_id", event.StoryID).Msg("worker persist story event failed")
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *StoryEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
