// Package main provides the readbank CLI tool for building and querying
// sharded sequence-read banks for targeted assembly.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
