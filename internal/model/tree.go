package model

import (
	"errors"
	"fmt"

	"github.com/couchcryptid/anaemia-predictor/internal/domain"
)

// maxTreeDepth bounds recursion when validating exported trees.
const maxTreeDepth = 64

// TreeNode is one node of an exported decision tree. Internal nodes route
// x[Feature] <= Threshold to Left; leaves carry per-class sample counts.
type TreeNode struct {
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"` // [class0, class1] at leaves
}

func (n *TreeNode) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

type decisionTree struct {
	root *TreeNode
}

func newDecisionTree(a Artifact) (*decisionTree, error) {
	if a.Tree == nil {
		return nil, errors.New("decision_tree: missing tree")
	}
	if err := checkNode(a.Tree, 0); err != nil {
		return nil, fmt.Errorf("decision_tree: %w", err)
	}
	return &decisionTree{root: a.Tree}, nil
}

func checkNode(n *TreeNode, depth int) error {
	if depth > maxTreeDepth {
		return fmt.Errorf("tree deeper than %d", maxTreeDepth)
	}
	if n.isLeaf() {
		if len(n.Value) != 2 {
			return fmt.Errorf("leaf at depth %d has %d class counts, want 2", depth, len(n.Value))
		}
		if n.Value[0] < 0 || n.Value[1] < 0 || n.Value[0]+n.Value[1] == 0 {
			return fmt.Errorf("leaf at depth %d has invalid class counts %v", depth, n.Value)
		}
		return nil
	}
	if n.Left == nil || n.Right == nil {
		return fmt.Errorf("internal node at depth %d has a single child", depth)
	}
	if n.Feature < 0 || n.Feature >= len(domain.FeatureNames) {
		return fmt.Errorf("node at depth %d splits on feature %d", depth, n.Feature)
	}
	if err := checkNode(n.Left, depth+1); err != nil {
		return err
	}
	return checkNode(n.Right, depth+1)
}

func (m *decisionTree) Predict(f domain.Features) (domain.Label, error) {
	label, _, err := m.PredictWithConfidence(f)
	return label, err
}

func (m *decisionTree) PredictWithConfidence(f domain.Features) (domain.Label, float64, error) {
	x := f.Vector()
	n := m.root
	for !n.isLeaf() {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}

	total := n.Value[0] + n.Value[1]
	p1 := n.Value[1] / total
	// Ties go to class 0, the first maximum.
	if p1 > 0.5 {
		return domain.LabelAnaemic, p1, nil
	}
	return domain.LabelNotAnaemic, 1 - p1, nil
}
