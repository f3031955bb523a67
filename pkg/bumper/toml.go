package bumper

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// tomlBumper updates TOML files. The document is decoded into a generic
// tree and re-encoded, so comments do not survive; key order follows the
// encoder's table ordering.
type tomlBumper struct{}

func (tomlBumper) Apply(path, locator, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse toml %s: %w", path, err)
	}

	keys, err := splitLocator(locator)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := setTreeValue(doc, keys, version); err != nil {
		return fmt.Errorf("%s: locator %q: %w", path, locator, err)
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("render toml %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// setTreeValue walks nested string-keyed maps and replaces the leaf value.
func setTreeValue(tree map[string]any, keys []string, value string) error {
	for i, key := range keys {
		child, ok := tree[key]
		if !ok {
			return fmt.Errorf("key %q not found", key)
		}
		if i == len(keys)-1 {
			tree[key] = value
			return nil
		}
		next, ok := child.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is not a table", key)
		}
		tree = next
	}
	return nil
}
