package main

import (
	"context"
	"log"

	"greendrake/po/internal/cli"
)

func main() {
	if err := cli.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
