// Reads trace files to be relayed from the journal.
package queuereader

import (
	"context"
	"time"

	"trace-relay/pkg/database"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type queueReaderConfig struct {
	db     *gorm.DB
	output chan database.TraceFile
}

func worker(ctx context.Context, conf *queueReaderConfig) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var files []database.TraceFile
			conf.db.Where("Started = ? AND Finished = ?", false, false).Limit(100).Find(&files)
			for _, file := range files {
				file.Started = true
				if err := conf.db.Save(&file).Error; err != nil {
					logrus.WithFields(logrus.Fields{
						"Path": file.Path,
					}).Errorf("Error setting to Started in journal %v", err)
					continue
				}
				conf.output <- file
			}
		}
	}
}

func CreateQueueReader(ctx context.Context, db *gorm.DB, output chan database.TraceFile) {
	conf := queueReaderConfig{
		db:     db,
		output: output,
	}
	go worker(ctx, &conf)
}
