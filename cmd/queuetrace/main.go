package main

import (
	"fmt"
	"os"
	"trace-relay/pkg/config"
	"trace-relay/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: %s <tracefile>\n", os.Args[0])
		return
	}
	conf, err := config.GetConfig("config.toml")
	if err != nil {
		fmt.Printf("Failed reading config with err %v\n", err)
		return
	}
	db, err := database.OpenDatabase(conf.DBFile)
	if err != nil {
		fmt.Printf("Failed setting up journal with err %v\n", err)
		return
	}

	tracefile := os.Args[1]
	if err := database.QueueTraceForSending(db, tracefile); err != nil {
		fmt.Printf("%v\n", err)
	} else {
		fmt.Printf("Trace queued for sending\n")
	}
}
