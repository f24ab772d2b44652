package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DocumentKeyPrefix     = "document:%d"
	DocumentListKey       = "documents:active"
	UserKeyPrefix         = "user:%d"
	RequestStatusPrefix   = "request:%d:status"
)

const (
	DocumentTTL     = 10 * time.Minute
	DocumentListTTL = 2 * time.Minute
	UserTTL         = 5 * time.Minute
)

func DocumentKey(documentID uint) string {
	return fmt.Sprintf(DocumentKeyPrefix, documentID)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateDocument(ctx context.Context, documentID uint) {
	Invalidate(ctx, DocumentKey(documentID))
	Invalidate(ctx, DocumentListKey)
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
