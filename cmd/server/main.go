package main

import (
	"fmt"
	"os"

	"solvo/internal/app/server"
)

func main() {
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "solvo: %v\n", err)
		os.Exit(1)
	}
}
