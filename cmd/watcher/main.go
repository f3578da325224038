package main

import (
	"context"
	"log"

	"github.com/dmitrijs2005/moviecp/internal/config"
	"github.com/dmitrijs2005/moviecp/internal/watcher"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := watcher.NewApp(cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
