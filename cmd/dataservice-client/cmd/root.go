package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/armadaproject/dataservice-client/internal/common"
)

const configFlag = "config"

func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "dataservice-client",
		SilenceUsage: true,
		Short:        "Streams elements from a dataset service job",
	}

	cmd.PersistentFlags().String(configFlag, "./config/dataservice-client", "path to the config directory")

	cmd.AddCommand(runCmd())

	return cmd
}

func loadConfig() (Configuration, error) {
	var config Configuration
	common.LoadConfig(&config, viper.GetString(configFlag))
	return config, nil
}
