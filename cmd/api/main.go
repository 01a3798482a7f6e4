package main

import (
	"context"
	"flag"
	"log"

	"github.com/farstore/checkout-core/internal/app/bootstrap"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to the service configuration file")
	flag.Parse()

	ctx := context.Background()
	rt, err := bootstrap.NewRuntime(ctx, *configPath)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	if err := rt.RunAPI(ctx); err != nil {
		log.Fatalf("api: %v", err)
	}
}
