// Command autopostd runs the publishing daemon in the foreground. It is the
// entry point for service managers; `autopost run` does the same from the CLI.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"autopost/internal/config"
	"autopost/internal/daemonrun"
)

func main() {
	cfg, _, _, err := config.Load(os.Getenv("AUTOPOST_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{}); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Fatalf("autopostd: %v", err)
	}
}
