package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteJSON marshals a report (or any serializable result object) to an
// indented JSON file, creating parent directories as needed.
func WriteJSON(report interface{}, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, data, 0644)
}
