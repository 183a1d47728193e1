package mindmap

import (
	"errors"
	"fmt"
)

// 思维导图文档模型与校验。文档由客户端整体提交，服务端只校验形状，
// 不做任何由笔记正文推导导图的运算。

// 布局取值（与前端渲染器约定一致）。
const (
	LayoutRight = "right"
	LayoutBoth  = "both"
)

var (
	ErrEmptyDocument = errors.New("empty document")
	ErrBadLayout     = errors.New("bad layout")
	ErrTooManyNodes  = errors.New("too many nodes")
	ErrTooDeep       = errors.New("tree too deep")
	ErrBadNode       = errors.New("bad node")
	ErrDuplicateID   = errors.New("duplicate node id")
)

// 单个节点标签允许的最大字节数。
const maxLabelBytes = 512

// Node 为导图树节点；Children 为空表示叶子。
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Children []Node `json:"children,omitempty"`
}

// Document 为一份完整的导图文档。
type Document struct {
	Title  string `json:"title"`
	Layout string `json:"layout"`
	Root   *Node  `json:"root"`
}

// Limits 为校验上限；零值字段表示不限制。
type Limits struct {
	MaxNodes int
	MaxDepth int
}

// Validate 校验文档形状：布局取值、节点树大小/深度、节点 id 唯一且标签非空。
func (d *Document) Validate(lim Limits) error {
	if d == nil || d.Root == nil {
		return ErrEmptyDocument
	}
	switch d.Layout {
	case "", LayoutRight, LayoutBoth:
	default:
		return fmt.Errorf("%w: %q", ErrBadLayout, d.Layout)
	}
	seen := make(map[string]struct{})
	count := 0
	var walk func(n *Node, depth int) error
	walk = func(n *Node, depth int) error {
		if lim.MaxDepth > 0 && depth > lim.MaxDepth {
			return ErrTooDeep
		}
		count++
		if lim.MaxNodes > 0 && count > lim.MaxNodes {
			return ErrTooManyNodes
		}
		if n.ID == "" || n.Label == "" || len(n.Label) > maxLabelBytes {
			return fmt.Errorf("%w: id=%q", ErrBadNode, n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = struct{}{}
		for i := range n.Children {
			if err := walk(&n.Children[i], depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Root, 1)
}

// NodeCount 返回文档节点总数（含根）。
func (d *Document) NodeCount() int {
	if d == nil || d.Root == nil {
		return 0
	}
	count := 0
	var walk func(n *Node)
	walk = func(n *Node) {
		count++
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	walk(d.Root)
	return count
}
