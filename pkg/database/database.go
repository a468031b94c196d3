package database

import (
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TraceFile is the journal row for one spooled trace document. The watcher
// creates rows, the relay picks them up and fills in the outcome.
type TraceFile struct {
	gorm.Model
	Path        string `json:"path"`         // Trace document path in the spool directory
	Started     bool   `json:"started"`      // Whether the relay picked the trace up
	Finished    bool   `json:"finished"`     // Whether the relay is done with the trace
	Success     bool   `json:"success"`      // Whether every packet made it to the collector
	PacketsSent int    `json:"packets_sent"` // Packets confirmed written, forceout included
	BytesSent   int64  `json:"bytes_sent"`   // Bytes confirmed written
}

// Opens the journal database, a local sqlite file shared by the watcher and
// the relay running on the same machine.
func OpenDatabase(dbfile string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dbfile), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(&TraceFile{})
	return db, err
}

// QueueTraceForSending pushes a spool file path into the journal, the relay
// picks it up from there.
func QueueTraceForSending(db *gorm.DB, path string) error {
	file := TraceFile{Path: path}
	return db.Create(&file).Error
}
