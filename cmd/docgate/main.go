/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Command docgate runs an HTTP gateway that submits documents to the CRPT API
// not more often than the configured fixed-window rate limit allows.
package main

import (
	"fmt"
	golog "log"
	"os"

	"github.com/spf13/pflag"

	"github.com/acronis/go-docgate/internal/libinfo"
	"github.com/acronis/go-docgate/log"
	"github.com/acronis/go-docgate/service"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		golog.Fatal(err)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet(serviceName, pflag.ContinueOnError)
	cfgPath := flags.StringP("config", "c", "", "path to the YAML configuration file")
	printVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *printVersion {
		fmt.Println(libinfo.UserAgent())
		return nil
	}

	cfg, err := loadAppConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	logger.Info("starting docgate", log.String("version", libinfo.Version()))
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	return service.New(logger, a.unit).Start()
}
