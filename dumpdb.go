package main

import (
	"fmt"
	"trace-relay/pkg/database"
)

func main() {
	var files []database.TraceFile
	db, _ := database.OpenDatabase("relay.db")
	db.Limit(1000).Find(&files)
	for _, file := range files {
		fmt.Printf("%s %t %t %t %d %d\n",
			file.Path, file.Started, file.Finished, file.Success, file.PacketsSent, file.BytesSent)
	}
}
