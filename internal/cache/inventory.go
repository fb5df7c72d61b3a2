package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix     = "profile:%d"
	RoomKeyPrefix        = "room:%d"
	MessageHistoryPrefix = "room:%d:messages"
	RiotMatchKeyPrefix   = "riot:match:%s"
	VerifyTokenPrefix    = "verify:token:%s"
	RiotChallengePrefix  = "riot:challenge:%d"
)

const (
	ProfileTTL        = 5 * time.Minute
	RoomTTL           = 30 * time.Second
	MessageHistoryTTL = 2 * time.Minute
	// Finished match details never change, but cap the TTL anyway.
	RiotMatchTTL     = 24 * time.Hour
	VerifyTokenTTL   = 15 * time.Minute
	RiotChallengeTTL = 10 * time.Minute
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func RoomKey(roomID uint) string {
	return fmt.Sprintf(RoomKeyPrefix, roomID)
}

func MessageHistoryKey(roomID uint) string {
	return fmt.Sprintf(MessageHistoryPrefix, roomID)
}

func RiotMatchKey(matchID string) string {
	return fmt.Sprintf(RiotMatchKeyPrefix, matchID)
}

func VerifyTokenKey(token string) string {
	return fmt.Sprintf(VerifyTokenPrefix, token)
}

func RiotChallengeKey(userID uint) string {
	return fmt.Sprintf(RiotChallengePrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateRoom(ctx context.Context, roomID uint) {
	Invalidate(ctx, RoomKey(roomID))
	Invalidate(ctx, MessageHistoryKey(roomID))
}
