package watcher

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
	"trace-relay/pkg/database"

	"github.com/rjeczalik/notify"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func Test_isDirectory(t *testing.T) {
	type args struct {
		path string
	}
	tests := []struct {
		name    string
		args    args
		want    bool
		wantErr bool
	}{
		{"test-works", args{"."}, true, false},
		{"test-non-existent", args{"nonexistentdir"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := isDirectory(tt.args.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("isDirectory() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("isDirectory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateWatcher_baddir(t *testing.T) {
	var memLog bytes.Buffer
	logrus.SetOutput(&memLog)

	ctx, cancel := context.WithCancel(context.Background())
	CreateWatcher(ctx, &gorm.DB{}, "nonexistentdir", make(chan notify.EventInfo, 5))
	cancel()

	if !strings.Contains(memLog.String(), "Failed to watch dir with error") {
		t.Fatalf("Expected not in log, '%v' not in '%v'", "Failed to watch dir with error", memLog.String())
	}
}

func Test_worker_queues_quiet_files(t *testing.T) {
	db, err := database.OpenDatabase(":memory:")
	if err != nil {
		t.Fatal(err)
	}

	conf := watcherConfig{
		db:    db,
		input: make(chan notify.EventInfo, 5),
		cache: map[string]time.Time{
			// Already quiet for longer than the 30 second threshold.
			"spool/CI.PASC.BHZ.00.json": time.Now().Add(-time.Minute),
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(15 * time.Second)
		cancel()
	}()
	worker(ctx, &conf)

	var file database.TraceFile
	if err := db.Where("Path = ?", "spool/CI.PASC.BHZ.00.json").First(&file).Error; err != nil {
		t.Fatalf("quiet trace file was not queued: %v", err)
	}
}
