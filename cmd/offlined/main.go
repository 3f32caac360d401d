package main

import (
	"context"
	"log"

	_ "modernc.org/sqlite"

	"github.com/querygate/offline/internal/app"
	"github.com/querygate/offline/internal/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	a.Run(ctx)

}
