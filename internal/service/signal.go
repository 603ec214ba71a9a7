package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/transparence"
)

type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, channel string, event transparence.Event) error {

	if s.rdb == nil {
		return nil
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, channel, jsonstr).Err()
	if err != nil {
		return err

	}

	return nil
}

// Realtime forwards events published on channels to output until ctx is
// done. It never closes output.
func (s *SignalService) Realtime(ctx context.Context, channels []string, output chan<- transparence.Event) {
	if s.rdb == nil || len(channels) == 0 {
		<-ctx.Done()
		return
	}

	pubsub := s.rdb.Subscribe(ctx, channels...)
	defer pubsub.Close()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var event transparence.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.WarnContext(
					ctx, "dropping malformed realtime event",
					slog.String("module", "signal"),
					slog.String("channel", msg.Channel),
					slog.String("error", err.Error()),
				)
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
