package api

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"mealroute/internal/model"
)

const routesChannel = "routes.update"

// RedisBroker implements RouteBroker over Redis Pub/Sub so several API
// replicas can stream one simulation's updates.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt)}, nil
}

func (b *RedisBroker) Subscribe() chan model.RoutesUpdate {
	ch := make(chan model.RoutesUpdate, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, routesChannel)
	// initial consume to ensure the subscription is live
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var upd model.RoutesUpdate
			if err := json.Unmarshal([]byte(msg.Payload), &upd); err == nil {
				select {
				case ch <- upd:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(ch chan model.RoutesUpdate) {
	// the fanout goroutine exits when the PubSub channel closes; draining
	// subscribers just stop reading
}

func (b *RedisBroker) PublishRoutes(upd model.RoutesUpdate) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(upd)
	_ = b.rdb.Publish(ctx, routesChannel, data).Err()
}
