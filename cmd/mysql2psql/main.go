// Package main contains the mysql2psql command line tool. It uses cobra for
// commands and viper to layer flags and environment variables over the
// optional TOML configuration file.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
