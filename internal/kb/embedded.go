package kb

import (
	_ "embed"
	"fmt"

	"pakar/internal/engine"
)

//go:embed rules.yaml
var embeddedRules []byte

// Default returns the smartphone knowledge base baked into the binary.
// It is used whenever no rule file is configured.
func Default() (*engine.RuleSet, Metadata, error) {
	rs, meta, err := Parse(embeddedRules)
	if err != nil {
		// The embedded file is validated by tests; failing here means a
		// broken build, not bad user input.
		return nil, Metadata{}, fmt.Errorf("kb: embedded rules invalid: %w", err)
	}
	return rs, meta, nil
}
