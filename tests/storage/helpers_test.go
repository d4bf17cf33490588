package storage

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	surrealdb "github.com/foliotrack/foliotrack/internal/storage/surrealdb"
	tcommon "github.com/foliotrack/foliotrack/tests/common"
)

// testManager creates a StorageManager connected to the shared SurrealDB
// container with a unique database per test for isolation.
func testManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)

	cfg := common.NewDefaultConfig()
	cfg.Environment = "test"
	cfg.Storage = common.StorageConfig{
		Address:   sc.Address(),
		Namespace: "foliotrack_test",
		Database:  fmt.Sprintf("d_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000),
		Username:  "root",
		Password:  "root",
	}

	mgr, err := surrealdb.NewManager(common.NewSilentLogger(), cfg)
	if err != nil {
		t.Fatalf("create storage manager: %v", err)
	}

	t.Cleanup(func() {
		mgr.Close()
	})

	return mgr
}

// testContext returns a background context.
func testContext() context.Context {
	return context.Background()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
