package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RoomPresence mirrors room liveness into Redis as best-effort markers.
// Notes:
//   - Markers are advisory: operators can list live rooms across restarts
//     of their tooling, but the registry never reads them back.
//   - Room state itself stays in process memory; this is not persistence.
//   - The TTL bounds how long a marker for a crashed process lingers.
type RoomPresence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomPresence(client *redis.Client, ttl time.Duration) *RoomPresence {
	return &RoomPresence{client: client, ttl: ttl}
}

func (p *RoomPresence) MarkAlive(roomID string) {
	_ = p.client.Set(context.Background(), p.key(roomID), "1", p.ttl).Err()
}

func (p *RoomPresence) Clear(roomID string) {
	_ = p.client.Del(context.Background(), p.key(roomID)).Err()
}

func (p *RoomPresence) key(roomID string) string {
	return "room:presence:" + roomID
}
