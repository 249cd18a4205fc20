package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/steveyegge/lineup/internal/lockfile"
)

// SetProjectValue validates key and value and writes them to the project
// config file, creating .lineup/config.yaml in the working directory when no
// project config exists yet. Dotted keys become nested mappings. Comments
// and the order of other keys are preserved. Concurrent writers are
// serialized through a lock file next to the config.
func SetProjectValue(key, value string) (string, error) {
	if err := ValidateKey(key, value); err != nil {
		return "", err
	}

	configPath, err := FindProjectConfig()
	if err != nil {
		cwd, werr := os.Getwd()
		if werr != nil {
			return "", fmt.Errorf("failed to get working directory: %w", werr)
		}
		dir := filepath.Join(cwd, ProjectDirName)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", dir, err)
		}
		configPath = filepath.Join(dir, ConfigFileName)
	}

	lock, err := lockfile.Acquire(configPath)
	if err != nil {
		return "", err
	}
	err = setYamlValue(configPath, key, value)
	if rerr := lock.Release(); err == nil {
		err = rerr
	}
	if err != nil {
		return "", err
	}

	// Reload so the change is visible to this process.
	if v != nil {
		v.SetConfigFile(configPath)
		_ = v.ReadInConfig()
	}
	return configPath, nil
}

// setYamlValue rewrites configPath with key set to value.
func setYamlValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath) // #nosec G304 - config file path from caller
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config.yaml: %w", err)
	}

	var root yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("failed to parse config.yaml: %w", err)
		}
	}

	// Handle empty or comment-only files by creating a valid document structure
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		root = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		root.Content[0] = &yaml.Node{Kind: yaml.MappingNode}
		mapping = root.Content[0]
	}

	setNested(mapping, strings.Split(key, "."), scalarFor(key, value))

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config.yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to close encoder: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return nil
}

// setNested assigns val at path below mapping, creating intermediate
// mappings and replacing non-mapping values in the way.
func setNested(mapping *yaml.Node, path []string, val *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value != path[0] {
			continue
		}
		if len(path) == 1 {
			mapping.Content[i+1] = val
			return
		}
		child := mapping.Content[i+1]
		if child.Kind != yaml.MappingNode {
			child = &yaml.Node{Kind: yaml.MappingNode}
			mapping.Content[i+1] = child
		}
		setNested(child, path[1:], val)
		return
	}

	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: path[0]}
	if len(path) == 1 {
		mapping.Content = append(mapping.Content, keyNode, val)
		return
	}
	child := &yaml.Node{Kind: yaml.MappingNode}
	mapping.Content = append(mapping.Content, keyNode, child)
	setNested(child, path[1:], val)
}

// scalarFor builds the value node. Keys whose default is a string are tagged
// so values like "123" or "true" stay strings.
func scalarFor(key, value string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Value: value}
	if k := LookupKey(key); k != nil {
		if _, isString := k.Default.(string); isString {
			n.Tag = "!!str"
		}
	}
	return n
}
