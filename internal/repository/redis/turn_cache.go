package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for live turn state.
func stateKey(gameID string) string { return "game:" + gameID + ":state" }
func timerKey(gameID string) string { return "game:" + gameID + ":timer" }
func readyKey(gameID string) string { return "game:" + gameID + ":ready" }
func packetKey(gameID string, house uint32) string {
	return "game:" + gameID + ":packet:" + strconv.FormatUint(uint64(house), 10)
}

// SetGameState stores the authoritative state JSON for the open turn.
func (c *Client) SetGameState(ctx context.Context, gameID string, state json.RawMessage) error {
	return c.rdb.Set(ctx, stateKey(gameID), []byte(state), 0).Err()
}

// GetGameState retrieves the live state JSON, or nil when absent.
func (c *Client) GetGameState(ctx context.Context, gameID string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, stateKey(gameID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game state: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetPacket stores a house's command packet for the open turn.
func (c *Client) SetPacket(ctx context.Context, gameID string, house uint32, packet json.RawMessage) error {
	return c.rdb.Set(ctx, packetKey(gameID, house), []byte(packet), 0).Err()
}

// GetPacket retrieves a house's submitted packet, or nil when absent.
func (c *Client) GetPacket(ctx context.Context, gameID string, house uint32) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, packetKey(gameID, house)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get packet: %w", err)
	}
	return json.RawMessage(data), nil
}

// GetAllPackets retrieves packets from every house that has submitted one.
func (c *Client) GetAllPackets(ctx context.Context, gameID string, houses []uint32) (map[uint32]json.RawMessage, error) {
	result := make(map[uint32]json.RawMessage)
	for _, house := range houses {
		data, err := c.GetPacket(ctx, gameID, house)
		if err != nil {
			return nil, err
		}
		if data != nil {
			result[house] = data
		}
	}
	return result, nil
}

// MarkReady adds a house to the ready set for the open turn.
func (c *Client) MarkReady(ctx context.Context, gameID string, house uint32) error {
	return c.rdb.SAdd(ctx, readyKey(gameID), house).Err()
}

// UnmarkReady removes a house from the ready set.
func (c *Client) UnmarkReady(ctx context.Context, gameID string, house uint32) error {
	return c.rdb.SRem(ctx, readyKey(gameID), house).Err()
}

// ReadyCount returns how many houses have marked ready.
func (c *Client) ReadyCount(ctx context.Context, gameID string) (int64, error) {
	return c.rdb.SCard(ctx, readyKey(gameID)).Result()
}

// ReadyHouses returns the houses that have marked ready.
func (c *Client) ReadyHouses(ctx context.Context, gameID string) ([]uint32, error) {
	members, err := c.rdb.SMembers(ctx, readyKey(gameID)).Result()
	if err != nil {
		return nil, err
	}
	houses := make([]uint32, 0, len(members))
	for _, m := range members {
		v, err := strconv.ParseUint(m, 10, 32)
		if err != nil {
			continue
		}
		houses = append(houses, uint32(v))
	}
	return houses, nil
}

// turnGracePeriod is the extra time after the displayed deadline before
// resolution triggers, giving players a few seconds of leeway.
const turnGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires, Redis
// keyspace notifications trigger turn resolution.
func (c *Client) SetTimer(ctx context.Context, gameID string, deadline time.Time) error {
	ttl := time.Until(deadline) + turnGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(gameID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a game.
func (c *Client) ClearTimer(ctx context.Context, gameID string) error {
	return c.rdb.Del(ctx, timerKey(gameID)).Err()
}

// ClearTurnData removes packets, ready marks, and the timer for a game.
// Called after turn resolution to open the next turn clean.
func (c *Client) ClearTurnData(ctx context.Context, gameID string, houses []uint32) error {
	keys := []string{readyKey(gameID), timerKey(gameID)}
	for _, house := range houses {
		keys = append(keys, packetKey(gameID, house))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// DeleteGameData removes all Redis data for a game (on game end).
func (c *Client) DeleteGameData(ctx context.Context, gameID string, houses []uint32) error {
	keys := []string{stateKey(gameID), readyKey(gameID), timerKey(gameID)}
	for _, house := range houses {
		keys = append(keys, packetKey(gameID, house))
	}
	return c.rdb.Del(ctx, keys...).Err()
}
