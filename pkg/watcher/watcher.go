// Watches the spool directory and queues trace documents for the relay.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"trace-relay/pkg/config"
	"trace-relay/pkg/database"

	"github.com/rjeczalik/notify"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func isDirectory(path string) (bool, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return fileInfo.IsDir(), err
}

type watcherConfig struct {
	db    *gorm.DB
	input chan notify.EventInfo
	cache map[string]time.Time
}

// Trace documents are queued only once they have been quiet for 30 seconds,
// so a producer still writing a spool file never gets half a trace relayed.
func worker(ctx context.Context, conf *watcherConfig) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			notify.Stop(conf.input)
			return
		case ei := <-conf.input:
			if filepath.Ext(ei.Path()) != ".json" {
				continue
			}
			isdir, err := isDirectory(ei.Path())
			if err == nil && !isdir {
				conf.cache[ei.Path()] = time.Now()
				logrus.Infof("Noticed change in trace file '%s'", ei.Path())
			}
		case <-ticker.C:
			for path, lastupdated := range conf.cache {
				if time.Since(lastupdated).Seconds() > 30 {
					delete(conf.cache, path)
					if err := database.QueueTraceForSending(conf.db, path); err != nil {
						logrus.Errorf("Failed to queue trace for sending: %v", err)
					} else {
						logrus.Infof("Trace file '%s' queued for sending", path)
					}
				}
			}
		}
	}
}

func CreateWatcher(ctx context.Context, db *gorm.DB, spooldir string, input chan notify.EventInfo) {
	if err := notify.Watch(filepath.Join(spooldir, "..."), input, notify.Write, notify.Create); err != nil {
		logrus.Errorf("Failed to watch dir with error: %v", err)
		return
	}
	conf := watcherConfig{
		db:    db,
		input: input,
		cache: make(map[string]time.Time),
	}
	go worker(ctx, &conf)
}

func Watcher(ctx context.Context, db *gorm.DB, conf config.Config) {
	events := make(chan notify.EventInfo, 500)

	CreateWatcher(ctx, db, conf.SpoolDir, events)
}
