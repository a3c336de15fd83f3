// Command fixctl connects to a configured FIX gateway and runs the
// session until interrupted.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"fixengine/cmd/fixctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}
