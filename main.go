package main

import (
	"os"

	"github.com/accessdesk/accessdesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
