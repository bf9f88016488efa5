package domain

import "fmt"

// Strategy is the caller's declared intent for resolving pre-existing
// embeddings during ingestion. It is resolved exactly once at the start
// of a batch and never re-checked mid-pipeline.
type Strategy int

const (
	// StrategyAuto means the caller stated no intent: append when the
	// collection is empty, report a conflict when it is not.
	StrategyAuto Strategy = iota

	// StrategyClean wipes the collection before writing the new batch.
	StrategyClean

	// StrategyAppend adds to the collection, whatever its state.
	StrategyAppend
)

// String returns the wire name of the strategy.
func (s Strategy) String() string {
	switch s {
	case StrategyAuto:
		return "auto"
	case StrategyClean:
		return "clean"
	case StrategyAppend:
		return "append"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy maps the optional strategy selector from an upload
// request onto a Strategy. An empty selector means StrategyAuto.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "":
		return StrategyAuto, nil
	case "clean":
		return StrategyClean, nil
	case "append":
		return StrategyAppend, nil
	default:
		return StrategyAuto, fmt.Errorf("invalid strategy %q: choose from 'clean' or 'append'", s)
	}
}
