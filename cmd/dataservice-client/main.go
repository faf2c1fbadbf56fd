package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/armadaproject/dataservice-client/cmd/dataservice-client/cmd"
	"github.com/armadaproject/dataservice-client/internal/common"
)

func main() {
	common.ConfigureLogging()

	if err := cmd.RootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
