package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates a cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateRoomCache drops every cached view touching one room. Called
// after rating/message/payment writes and room updates.
func InvalidateRoomCache(ctx context.Context, cm *CacheManager, roomID uint) {
	SafeDelete(ctx, cm.Room,
		fmt.Sprintf("id:%d", roomID),
		fmt.Sprintf("details:%d", roomID))
	SafeInvalidatePattern(ctx, cm.Room, "list:*")
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("room:%d", roomID))
}

// InvalidateUserCache drops cached user lookups after a profile change.
func InvalidateUserCache(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, fmt.Sprintf("id:%s", userID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("user:%s", userID))
}
