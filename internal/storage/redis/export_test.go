package redis

// SetTokenFunc подменяет генератор токена блокировки в тестах.
func (s *VersionStore) SetTokenFunc(f func() string) {
	s.newToken = f
}

const (
	UnlockScript = unlockScript
	SyncScript   = syncScript
	LockTTL      = lockTTL
)
