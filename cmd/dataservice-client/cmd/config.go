package cmd

import "github.com/armadaproject/dataservice-client/ingest"

// Configuration is the top-level shape the config file and viper flags are
// unmarshalled into: the dataset to stream plus how often to log progress.
type Configuration struct {
	Dataset ingest.DatasetConfig `mapstructure:"dataset"`

	// StatsIntervalSeconds controls how often the run loop logs throughput.
	// Zero disables periodic stats logging.
	StatsIntervalSeconds int `mapstructure:"statsIntervalSeconds"`
}
