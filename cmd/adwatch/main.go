package main

import (
	"os"

	"skylight.fyi/adwatch/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
