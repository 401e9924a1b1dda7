// Package tree builds the virtual filesystem from YAML. Mappings become
// directories and scalars become files; key order is kept.
package tree

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/cmdcenter/assets"
	"github.com/doeshing/cmdcenter/internal/domain"
	"github.com/doeshing/cmdcenter/internal/pkg/filesystem"
)

// Load reads a tree file. An empty path returns the embedded demo tree.
func Load(path string) (*domain.Node, error) {
	if path == "" {
		return Parse(assets.DefaultTreeYAML)
	}
	data, err := os.ReadFile(filesystem.ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	root, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// Parse decodes a YAML document into a directory node.
func Parse(data []byte) (*domain.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse tree: %w", err)
	}
	if len(doc.Content) == 0 {
		return domain.NewDir(), nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("tree root must be a mapping, got line %d", root.Line)
	}
	return convert(root)
}

func convert(node *yaml.Node) (*domain.Node, error) {
	switch node.Kind {
	case yaml.MappingNode:
		children := make([]domain.NamedNode, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			if name == "" || name == "." || name == ".." {
				return nil, fmt.Errorf("line %d: invalid entry name %q", node.Content[i].Line, name)
			}
			for _, r := range name {
				if r == '/' {
					return nil, fmt.Errorf("line %d: entry name %q contains '/'", node.Content[i].Line, name)
				}
			}
			child, err := convert(node.Content[i+1])
			if err != nil {
				return nil, err
			}
			children = append(children, domain.Entry(name, child))
		}
		return domain.NewDir(children...), nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return domain.NewFile(""), nil
		}
		return domain.NewFile(node.Value), nil
	case yaml.AliasNode:
		return convert(node.Alias)
	default:
		return nil, fmt.Errorf("line %d: sequences are not valid tree entries", node.Line)
	}
}
