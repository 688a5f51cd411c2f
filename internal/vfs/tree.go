package vfs

import (
	"fmt"
	"strings"
)

// DefaultTreeDepth bounds tree recursion; the grammar is four levels deep.
const DefaultTreeDepth = 4

// Tree renders an indented box-drawing listing rooted at path. A
// non-existent path yields a single "not found" line; a file path renders
// just its name.
func (fs *FS) Tree(path string, maxDepth int) (string, error) {
	node, err := fs.Resolve(path)
	if err != nil {
		return "", err
	}
	if node == nil {
		return fmt.Sprintf("Path not found: %s", path), nil
	}

	var lines []string
	if node.Name == "/" {
		lines = append(lines, ".")
	} else {
		lines = append(lines, node.Name)
	}

	if err := fs.treeChildren(path, node, &lines, "", 0, maxDepth); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (fs *FS) treeChildren(path string, node *Node, lines *[]string, prefix string, depth, maxDepth int) error {
	if depth >= maxDepth || !node.IsDir {
		return nil
	}

	for i, child := range node.Children {
		last := i == len(node.Children)-1
		connector := "├── "
		if last {
			connector = "└── "
		}
		*lines = append(*lines, prefix+connector+child)

		if !strings.HasSuffix(child, "/") {
			continue
		}
		childPath := strings.TrimRight(path, "/") + "/" + strings.TrimRight(child, "/")
		childNode, err := fs.Resolve(childPath)
		if err != nil {
			return err
		}
		if childNode == nil {
			continue
		}
		extension := "│   "
		if last {
			extension = "    "
		}
		if err := fs.treeChildren(childPath, childNode, lines, prefix+extension, depth+1, maxDepth); err != nil {
			return err
		}
	}
	return nil
}
