package shared

import "fmt"

// RestoreLockNamespace is the advisory lock namespace for snapshot restores.
const RestoreLockNamespace int32 = 0x5b00

// CacheScope builds the per-user cache version scope.
func CacheScope(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}
