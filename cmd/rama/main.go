package main

import (
	"github.com/charmbracelet/log"

	"github.com/fa993/rama/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal("application terminated", "error", err)
	}
}
