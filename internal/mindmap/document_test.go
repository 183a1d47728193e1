package mindmap

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func child(id, label string) Node { return Node{ID: id, Label: label} }

func TestValidateOK(t *testing.T) {
	d := &Document{
		Title:  "m",
		Layout: LayoutRight,
		Root: &Node{ID: "root", Label: "center", Children: []Node{
			child("a", "one"),
			{ID: "b", Label: "two", Children: []Node{child("b1", "deep")}},
		}},
	}
	if err := d.Validate(Limits{MaxNodes: 10, MaxDepth: 3}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got := d.NodeCount(); got != 4 {
		t.Fatalf("node count = %d, want 4", got)
	}
}

func TestValidateEmpty(t *testing.T) {
	var d *Document
	if err := d.Validate(Limits{}); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("want ErrEmptyDocument, got %v", err)
	}
	if err := (&Document{}).Validate(Limits{}); !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("want ErrEmptyDocument, got %v", err)
	}
}

func TestValidateBadLayout(t *testing.T) {
	d := &Document{Layout: "radial", Root: &Node{ID: "r", Label: "x"}}
	if err := d.Validate(Limits{}); !errors.Is(err, ErrBadLayout) {
		t.Fatalf("want ErrBadLayout, got %v", err)
	}
}

func TestValidateTooDeep(t *testing.T) {
	// 构造深度 4 的链
	leaf := child("d", "leaf")
	d := &Document{Root: &Node{ID: "a", Label: "1", Children: []Node{
		{ID: "b", Label: "2", Children: []Node{
			{ID: "c", Label: "3", Children: []Node{leaf}},
		}},
	}}}
	if err := d.Validate(Limits{MaxDepth: 3}); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("want ErrTooDeep, got %v", err)
	}
	if err := d.Validate(Limits{MaxDepth: 4}); err != nil {
		t.Fatalf("depth 4 should pass: %v", err)
	}
}

func TestValidateTooManyNodes(t *testing.T) {
	root := &Node{ID: "root", Label: "c"}
	for i := 0; i < 5; i++ {
		root.Children = append(root.Children, Node{ID: string(rune('a' + i)), Label: "x"})
	}
	d := &Document{Root: root}
	if err := d.Validate(Limits{MaxNodes: 5}); !errors.Is(err, ErrTooManyNodes) {
		t.Fatalf("want ErrTooManyNodes, got %v", err)
	}
	if err := d.Validate(Limits{MaxNodes: 6}); err != nil {
		t.Fatalf("6 nodes should pass: %v", err)
	}
}

func TestValidateDuplicateID(t *testing.T) {
	d := &Document{Root: &Node{ID: "r", Label: "c", Children: []Node{
		child("x", "one"), child("x", "two"),
	}}}
	if err := d.Validate(Limits{}); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("want ErrDuplicateID, got %v", err)
	}
}

func TestValidateBadNode(t *testing.T) {
	cases := []Node{
		{ID: "", Label: "x"},
		{ID: "a", Label: ""},
		{ID: "a", Label: strings.Repeat("y", maxLabelBytes+1)},
	}
	for i, n := range cases {
		d := &Document{Root: &n}
		if err := d.Validate(Limits{}); !errors.Is(err, ErrBadNode) {
			t.Fatalf("case %d: want ErrBadNode, got %v", i, err)
		}
	}
}

func TestDocumentJSONShape(t *testing.T) {
	// 前端整体提交的原始 JSON 必须能直接落到模型上
	raw := `{"title":"m","layout":"both","root":{"id":"r","label":"c","children":[{"id":"a","label":"x"}]}}`
	var d Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Layout != LayoutBoth || d.Root == nil || len(d.Root.Children) != 1 {
		t.Fatalf("decoded shape wrong: %+v", d)
	}
	if err := d.Validate(Limits{MaxNodes: 10, MaxDepth: 4}); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
