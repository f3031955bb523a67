package bumper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// jsonBumper updates JSON files, re-marshalling with two-space indentation.
type jsonBumper struct{}

func (jsonBumper) Apply(path, locator, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse json %s: %w", path, err)
	}

	keys, err := splitLocator(locator)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := setTreeValue(doc, keys, version); err != nil {
		return fmt.Errorf("%s: locator %q: %w", path, locator, err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("render json %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
