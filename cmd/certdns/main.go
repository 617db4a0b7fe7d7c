package main

import (
	"os"

	"github.com/netguru/certdns/cmd/certdns/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
