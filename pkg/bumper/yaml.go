package bumper

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlBumper updates YAML files through the yaml.v3 node API so comments
// and key order survive the rewrite.
type yamlBumper struct{}

func (yamlBumper) Apply(path, locator, version string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse yaml %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("empty yaml file %s", path)
	}

	keys, err := splitLocator(locator)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	target, err := findYAMLNode(doc.Content[0], keys)
	if err != nil {
		return fmt.Errorf("%s: locator %q: %w", path, locator, err)
	}
	target.SetString(version)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("render yaml %s: %w", path, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func findYAMLNode(node *yaml.Node, keys []string) (*yaml.Node, error) {
	current := node
	for _, key := range keys {
		if current.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%q is not a mapping", key)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(current.Content); i += 2 {
			if current.Content[i].Value == key {
				next = current.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("key %q not found", key)
		}
		current = next
	}
	if current.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("target is not a scalar value")
	}
	return current, nil
}
