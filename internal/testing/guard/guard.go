// Package guard switches the process into test mode when imported, so
// binaries started from tests skip migrations and background workers.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("STALLBOOK_TEST_MODE") == "" {
			_ = os.Setenv("STALLBOOK_TEST_MODE", "1")
		}
	})
}
