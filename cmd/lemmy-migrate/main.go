package main

import (
	"os"

	"github.com/thedoctorjtd/lemmy-migrate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
