// Command checkconfig validates a MATBOT configuration file and prints
// the effective settings after defaults and environment overrides.
package main

import (
	"flag"
	"fmt"
	"os"

	"matbot/internal/config"
)

func main() {
	path := flag.String("config", "config.json", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "checkconfig: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("configuration %s is valid\n\n", *path)
	fmt.Printf("server:    %s:%d\n", cfg.Server.BindAddress, cfg.Server.Port)
	fmt.Printf("user db:   %s (watch: %v)\n", cfg.Storage.UserDBPath, cfg.Storage.WatchUserDB)
	fmt.Printf("activity:  %s\n", cfg.Storage.ActivityPath)
	fmt.Printf("logging:   level=%s debug=%v file=%s\n", cfg.Logging.Level, cfg.Logging.DebugEnabled, cfg.Logging.File)
	fmt.Printf("responder: delay=%dms rules=%s\n", cfg.Responder.ThinkDelayMS, orNone(cfg.Responder.RulesFile))
	fmt.Printf("resources: enabled=%v hosts=%v\n", cfg.Resources.Enabled, cfg.Resources.AllowedHosts)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
