package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
Fleet dispatch service.

Usage:
  dispatch [--config-path config.yaml]

Configuration is read from the yaml file and overridden by environment
variables (see config.Config struct tags).
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
