package output

import (
	"sort"
	"strings"
)

const (
	// Tree characters
	treeEdge  = "├── "
	treeLast  = "└── "
	treeVert  = "│   "
	treeSpace = "    "

	// Description alignment column
	descriptionColumn = 36
)

// TreeNode is one segment of a dotted unit name.
type TreeNode struct {
	Name        string
	Description string
	IsBranch    bool
	Children    []*TreeNode
}

// RenderUnitTree renders dotted unit names as a namespace tree under root,
// with each unit's description aligned in a column.
func RenderUnitTree(root string, units map[string]string) string {
	if len(units) == 0 {
		return ""
	}

	top := &TreeNode{Name: root, IsBranch: true}

	for name, desc := range units {
		parts := strings.Split(name, ".")
		current := top

		for i, part := range parts {
			leaf := i == len(parts)-1

			var child *TreeNode
			for _, c := range current.Children {
				if c.Name == part && c.IsBranch == !leaf {
					child = c
					break
				}
			}
			if child == nil {
				child = &TreeNode{Name: part, IsBranch: !leaf}
				current.Children = append(current.Children, child)
			}
			if leaf {
				child.Description = desc
			}
			current = child
		}
	}

	sortTree(top)

	var sb strings.Builder
	renderNode(&sb, top, "", true, true)
	return sb.String()
}

// sortTree orders branches before units, then alphabetically.
func sortTree(node *TreeNode) {
	sort.Slice(node.Children, func(i, j int) bool {
		if node.Children[i].IsBranch != node.Children[j].IsBranch {
			return node.Children[i].IsBranch
		}
		return node.Children[i].Name < node.Children[j].Name
	})
	for _, child := range node.Children {
		sortTree(child)
	}
}

func renderNode(sb *strings.Builder, node *TreeNode, prefix string, isRoot, isLast bool) {
	if isRoot {
		sb.WriteString(StyleSummary.Render(node.Name))
		sb.WriteString("\n")
	} else {
		connector := treeEdge
		if isLast {
			connector = treeLast
		}

		name := node.Name
		if node.IsBranch {
			name += "."
		} else {
			name = StyleNoun.Render(name)
		}
		line := prefix + connector + name

		if node.Description != "" {
			padding := descriptionColumn - len(prefix+connector+node.Name)
			if padding < 2 {
				padding = 2
			}
			line += strings.Repeat(" ", padding) + StyleDim.Render(node.Description)
		}

		sb.WriteString(line)
		sb.WriteString("\n")
	}

	for i, child := range node.Children {
		childPrefix := ""
		if !isRoot {
			if isLast {
				childPrefix = prefix + treeSpace
			} else {
				childPrefix = prefix + treeVert
			}
		}
		renderNode(sb, child, childPrefix, false, i == len(node.Children)-1)
	}
}
