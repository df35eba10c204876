package main

import (
	"fmt"
	"os"

	"github.com/trezcool/dojang/core"
	logsvc "github.com/trezcool/dojang/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(logsvc.NewZapLogger("ADMIN", conf), conf)
	logger.Enable(!conf.Debug)

	cli := newCommandLine(conf, logger)
	err := cli.rootCmd().Execute()
	cli.close()
	logger.Sync()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		os.Exit(1)
	}
}
