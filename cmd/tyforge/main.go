package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/tyforge/client/internal/app"
)

func main() {
	ctx := context.Background()
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, app.ErrReported) || errors.Is(err, app.ErrLoginRequired) {
			os.Exit(1)
		}
		log.Fatal(err)
	}
}
