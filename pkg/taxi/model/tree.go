package model

import (
	"container/heap"
)

// Node is one node of a regression tree. Leaves have Left == Right == -1.
type Node struct {
	Feature      int
	BinThreshold uint8   // samples with bin <= BinThreshold go left
	Threshold    float64 // raw-value equivalent: x <= Threshold goes left
	Left         int
	Right        int
	Value        float64 // leaf output, shrinkage included
	Samples      int
	Depth        int
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return n.Left < 0 }

// Tree is a regression tree stored as a flat node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

// predictRaw routes row r of the column-major matrix x to a leaf.
func (t *Tree) predictRaw(x [][]float64, r int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature][r] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// predictBinned routes row r of a binned matrix to a leaf.
func (t *Tree) predictBinned(b [][]uint8, r int) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if b[n.Feature][r] <= n.BinThreshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// LeafCount returns the number of leaves.
func (t *Tree) LeafCount() int {
	c := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			c++
		}
	}
	return c
}

// histogram holds per-bin gradient sums and counts of one feature.
type histogram struct {
	sumG  []float64
	count []int
}

// splitInfo is the best split found for a node.
type splitInfo struct {
	gain    float64
	feature int
	bin     uint8
	nLeft   int
	sumGL   float64
	valid   bool
}

// growNode is a node under construction. Its samples are indices[start:end].
type growNode struct {
	id         int
	start, end int
	sumG       float64
	depth      int
	hists      []histogram
	split      splitInfo
}

func (g *growNode) n() int { return g.end - g.start }

// nodeHeap orders splittable nodes by decreasing gain.
type nodeHeap []*growNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].split.gain > h[j].split.gain }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(*growNode)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// grower builds one least-squares tree best-first on binned data.
// Hessians are constant (1) for squared error, so sample counts stand in for them.
type grower struct {
	binned     [][]uint8
	thresholds [][]float64
	nBins      []int
	gradients  []float64
	indices    []int
	params     Params
	shrinkage  float64
}

// grow returns the fitted tree and, for every leaf, the sample range it owns in g.indices.
func (g *grower) grow() (*Tree, []leafRange) {
	tree := &Tree{}
	root := g.newNode(tree, 0, len(g.indices), 0)
	root.hists = g.buildHistograms(root)
	g.findSplit(root)

	var leaves []*growNode
	h := &nodeHeap{}
	if root.split.valid {
		heap.Push(h, root)
	} else {
		leaves = append(leaves, root)
	}
	nLeaves := 1

	for h.Len() > 0 {
		if g.params.MaxLeafNodes > 0 && nLeaves >= g.params.MaxLeafNodes {
			for h.Len() > 0 {
				leaves = append(leaves, heap.Pop(h).(*growNode))
			}
			break
		}
		node := heap.Pop(h).(*growNode)
		left, right := g.splitNode(tree, node)
		nLeaves++

		// Build the smaller child's histograms by scanning; derive the other by subtraction.
		small, large := left, right
		if right.n() < left.n() {
			small, large = right, left
		}
		small.hists = g.buildHistograms(small)
		large.hists = subtract(node.hists, small.hists)
		node.hists = nil

		for _, child := range []*growNode{left, right} {
			g.findSplit(child)
			if child.split.valid {
				heap.Push(h, child)
			} else {
				child.hists = nil
				leaves = append(leaves, child)
			}
		}
	}

	ranges := make([]leafRange, 0, len(leaves))
	for _, leaf := range leaves {
		value := -g.shrinkage * leaf.sumG / (float64(leaf.n()) + g.params.L2Regularization)
		tree.Nodes[leaf.id].Value = value
		ranges = append(ranges, leafRange{start: leaf.start, end: leaf.end, value: value})
	}
	return tree, ranges
}

type leafRange struct {
	start, end int
	value      float64
}

func (g *grower) newNode(tree *Tree, start, end, depth int) *growNode {
	sum := 0.0
	for _, idx := range g.indices[start:end] {
		sum += g.gradients[idx]
	}
	tree.Nodes = append(tree.Nodes, Node{Left: -1, Right: -1, Samples: end - start, Depth: depth})
	return &growNode{id: len(tree.Nodes) - 1, start: start, end: end, sumG: sum, depth: depth}
}

func (g *grower) buildHistograms(node *growNode) []histogram {
	hists := make([]histogram, len(g.binned))
	samples := g.indices[node.start:node.end]
	for f, col := range g.binned {
		hg := histogram{sumG: make([]float64, g.nBins[f]), count: make([]int, g.nBins[f])}
		for _, idx := range samples {
			b := col[idx]
			hg.sumG[b] += g.gradients[idx]
			hg.count[b]++
		}
		hists[f] = hg
	}
	return hists
}

func subtract(parent, child []histogram) []histogram {
	out := make([]histogram, len(parent))
	for f := range parent {
		hg := histogram{sumG: make([]float64, len(parent[f].sumG)), count: make([]int, len(parent[f].count))}
		for b := range hg.sumG {
			hg.sumG[b] = parent[f].sumG[b] - child[f].sumG[b]
			hg.count[b] = parent[f].count[b] - child[f].count[b]
		}
		out[f] = hg
	}
	return out
}

// findSplit scans every feature histogram for the split with the largest
// positive gain that leaves at least MinSamplesLeaf samples on each side.
func (g *grower) findSplit(node *growNode) {
	node.split = splitInfo{}
	n := node.n()
	minLeaf := g.params.MinSamplesLeaf
	if n < 2*minLeaf {
		return
	}
	if g.params.MaxDepth > 0 && node.depth >= g.params.MaxDepth {
		return
	}
	l2 := g.params.L2Regularization
	parentScore := node.sumG * node.sumG / (float64(n) + l2)

	best := splitInfo{}
	for f, hg := range node.hists {
		sumGL, nL := 0.0, 0
		for b := 0; b < len(hg.sumG)-1; b++ {
			sumGL += hg.sumG[b]
			nL += hg.count[b]
			if nL < minLeaf {
				continue
			}
			nR := n - nL
			if nR < minLeaf {
				break
			}
			sumGR := node.sumG - sumGL
			gain := sumGL*sumGL/(float64(nL)+l2) + sumGR*sumGR/(float64(nR)+l2) - parentScore
			if gain > best.gain {
				best = splitInfo{gain: gain, feature: f, bin: uint8(b), nLeft: nL, sumGL: sumGL, valid: true}
			}
		}
	}
	node.split = best
}

// splitNode partitions the node's samples in place and appends both children.
func (g *grower) splitNode(tree *Tree, node *growNode) (*growNode, *growNode) {
	s := node.split
	col := g.binned[s.feature]
	samples := g.indices[node.start:node.end]

	i, j := 0, len(samples)-1
	for i <= j {
		if col[samples[i]] <= s.bin {
			i++
			continue
		}
		samples[i], samples[j] = samples[j], samples[i]
		j--
	}
	mid := node.start + i

	tn := &tree.Nodes[node.id]
	tn.Feature = s.feature
	tn.BinThreshold = s.bin
	tn.Threshold = g.thresholds[s.feature][s.bin]

	left := g.newNode(tree, node.start, mid, node.depth+1)
	right := g.newNode(tree, mid, node.end, node.depth+1)
	tree.Nodes[node.id].Left = left.id
	tree.Nodes[node.id].Right = right.id
	return left, right
}
