package main

import (
	"context"
	"log"
	"os"

	"github.com/vidupload/backend/internal/app"
)

func main() {
	ctx := context.Background()
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatalf("vidupload: %v", err)
	}
}
