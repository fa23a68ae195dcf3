package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ParticipantSessionKey returns the cache key holding a participant's
// active token JTI (single-device discipline).
func (r *CacheKeyStruct) ParticipantSessionKey(participantID string) string {
	return fmt.Sprintf("participant:%s:login", participantID)
}

// ParticipantProgressKey returns the cache key for a participant's
// per-question progress map within one quiz session.
func (r *CacheKeyStruct) ParticipantProgressKey(participantID, sessionID string) string {
	return fmt.Sprintf("participant:%s:session:%s:progress", participantID, sessionID)
}

// ParticipantNameKey returns the cache key for a participant's display name.
func (r *CacheKeyStruct) ParticipantNameKey(participantID string) string {
	return fmt.Sprintf("participant:%s:name", participantID)
}

// CacheKey is the shared cache key builder instance.
var CacheKey = NewCacheKeyStruct()
