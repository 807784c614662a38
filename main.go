package main

import (
	"github.com/kiloframe/beam/cmd"
	"github.com/kiloframe/beam/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
