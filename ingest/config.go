package ingest

import (
	"github.com/pkg/errors"

	"github.com/armadaproject/dataservice-client/internal/common/armadaerrors"
)

// AutotuneOutstandingRequests is the sentinel value for
// DatasetConfig.MaxOutstandingRequests that asks the task manager to pick
// the budget automatically (one outstanding request per known task).
const AutotuneOutstandingRequests = -1

// DefaultTaskRefreshIntervalMs is used when
// DatasetConfig.TaskRefreshIntervalMs is the autotune sentinel.
const DefaultTaskRefreshIntervalMs = 1000

// OpVersion distinguishes the two historical operator shapes this engine
// honours: V1 never had round-robin support, V2 added it.
type OpVersion int

const (
	OpVersionUnspecified OpVersion = 0
	OpVersionV1          OpVersion = 1
	OpVersionV2          OpVersion = 2
)

// DatasetConfig carries every attribute needed to join a dataset job, plus
// the operator version that decides whether round-robin fields are
// honoured.
type DatasetConfig struct {
	DatasetID      int64  `mapstructure:"datasetId" validate:"required"`
	ProcessingMode string `mapstructure:"processingMode" validate:"required"`
	Address        string `mapstructure:"address" validate:"required"`
	Protocol       string `mapstructure:"protocol" validate:"required"`

	// JobName, when non-empty, makes this iterator join a shared job keyed
	// by JobName and an iterator index. NewIterator draws that index from
	// the process-wide iteration counter for JobName; IteratorIndex is not
	// read.
	JobName       string
	IteratorIndex int64

	// ConsumerIndex/NumConsumers are only honoured when OpVersion is
	// OpVersionV2; under OpVersionV1, Validate rejects non-zero values.
	// Strict round-robin is enabled when ConsumerIndex is non-negative and
	// NumConsumers is positive; any other combination, including the zero
	// values, keeps the iterator in non-deterministic mode.
	ConsumerIndex int64
	NumConsumers  int64

	// MaxOutstandingRequests bounds in-flight fetches, or is
	// AutotuneOutstandingRequests to size the budget to the task count.
	MaxOutstandingRequests int64

	// TaskRefreshIntervalMs is how often the task manager polls the
	// dispatcher, or AutotuneOutstandingRequests to use the default.
	TaskRefreshIntervalMs int64

	// OutputCodec names the decode format of compressed elements. This
	// engine treats it as opaque metadata; it never decodes elements.
	OutputCodec string

	OpVersion OpVersion
}

// strictRoundRobin reports whether this configuration requests the round
// robin reading discipline. Carrying op_version as plain data rather than
// subclassing keeps this a predicate instead of a dispatch table.
func (c DatasetConfig) strictRoundRobin() bool {
	return c.OpVersion == OpVersionV2 && c.ConsumerIndex >= 0 && c.NumConsumers > 0
}

func (c DatasetConfig) jobKeyName() (string, bool) {
	if c.JobName == "" {
		return "", false
	}
	return c.JobName, true
}

// Validate performs construction-time checks: non-empty address/protocol,
// a recognised operator version, and a max-outstanding-requests value that
// is either positive or the autotune sentinel.
func (c DatasetConfig) Validate() error {
	if c.Address == "" {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{Name: "address", Value: c.Address, Message: "must not be empty"})
	}
	if c.Protocol == "" {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{Name: "protocol", Value: c.Protocol, Message: "must not be empty"})
	}
	if c.OpVersion != OpVersionV1 && c.OpVersion != OpVersionV2 {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{Name: "opVersion", Value: c.OpVersion, Message: "unrecognised operator version"})
	}
	if c.MaxOutstandingRequests != AutotuneOutstandingRequests && c.MaxOutstandingRequests <= 0 {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "maxOutstandingRequests",
			Value:   c.MaxOutstandingRequests,
			Message: "must be positive or the autotune sentinel",
		})
	}
	if c.OpVersion == OpVersionV1 && (c.ConsumerIndex != 0 || c.NumConsumers != 0) {
		return errors.WithStack(&armadaerrors.ErrInvalidArgument{
			Name:    "consumerIndex/numConsumers",
			Value:   nil,
			Message: "not supported by operator version 1",
		})
	}
	return nil
}

func (c DatasetConfig) taskRefreshInterval() int64 {
	if c.TaskRefreshIntervalMs == AutotuneOutstandingRequests {
		return DefaultTaskRefreshIntervalMs
	}
	return c.TaskRefreshIntervalMs
}
