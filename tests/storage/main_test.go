package storage

import (
	"os"
	"testing"

	tcommon "github.com/foliotrack/foliotrack/tests/common"
)

func TestMain(m *testing.M) {
	code := m.Run()
	tcommon.CleanupSurrealDB()
	os.Exit(code)
}
