package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ProfileKeyPrefix = "profile:%d"
	ExploreKeyPrefix = "explore:%d:%d"
	SavedKeyPrefix   = "saved:%d"
)

const (
	ProfileTTL = 5 * time.Minute
	ExploreTTL = 2 * time.Minute
	SavedTTL   = 5 * time.Minute
)

func ProfileKey(userID uint) string {
	return fmt.Sprintf(ProfileKeyPrefix, userID)
}

func ExploreKey(limit, offset int) string {
	return fmt.Sprintf(ExploreKeyPrefix, limit, offset)
}

func SavedKey(ownerID uint) string {
	return fmt.Sprintf(SavedKeyPrefix, ownerID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateProfile(ctx context.Context, userID uint) {
	Invalidate(ctx, ProfileKey(userID))
}

func InvalidateSaved(ctx context.Context, ownerID uint) {
	Invalidate(ctx, SavedKey(ownerID))
}

// InvalidateExplorePages drops every cached explore page. Page keys are
// parameterized by limit and offset, so this scans by prefix.
func InvalidateExplorePages(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, "explore:*", 0).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}
