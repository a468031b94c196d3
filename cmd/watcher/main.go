package main

import (
	"context"
	"trace-relay/pkg/config"
	"trace-relay/pkg/database"
	"trace-relay/pkg/utils"
	"trace-relay/pkg/watcher"

	"github.com/sirupsen/logrus"
)

func main() {
	utils.InitializeLogging("watcher.log")
	conf, err := config.GetConfig("config.toml")
	if err != nil {
		logrus.Errorf("Failed reading config with err %v", err)
		return
	}

	db, err := database.OpenDatabase(conf.DBFile)
	if err != nil {
		logrus.Errorf("Failed connecting to journal with err %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background()) // Create a cancelable context and pass it to all goroutines, allows us to gracefully shut down the program
	watcher.Watcher(ctx, db, conf)

	<-utils.CtrlC()
	cancel() // Gracefully shutdown and stop all goroutines
}
