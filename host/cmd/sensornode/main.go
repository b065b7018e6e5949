// Command sensornode boots the sensor node firmware on a simulated board
// and talks to real nodes over their transceiver link.
package main

import (
	"log"
	"os"
)

func main() {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	log.SetPrefix("sensornode: ")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
