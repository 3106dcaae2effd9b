package reporting

import (
	"encoding/json"
	"os"

	"github.com/ducminhle1904/prop-ledger/internal/trading"
)

// DefaultJSONFormatter exports the full state document
type DefaultJSONFormatter struct{}

func NewDefaultJSONFormatter() *DefaultJSONFormatter {
	return &DefaultJSONFormatter{}
}

func (f *DefaultJSONFormatter) FormatState(state trading.TradingState) ([]byte, error) {
	return json.MarshalIndent(state, "", "  ")
}

// WriteStateJSON writes the state in the same layout the store persists
func WriteStateJSON(state trading.TradingState, path string) error {
	data, err := NewDefaultJSONFormatter().FormatState(state)
	if err != nil {
		return err
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
