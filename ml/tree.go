package ml

import "sort"

// Node is one node of a regression tree. Leaves have nil children and carry
// the predicted value; internal nodes route on x[Feature] <= Threshold.
// Fields are exported for gob serialization of trained models.
type Node struct {
	Feature   int
	Threshold float64
	Value     float64
	Left      *Node
	Right     *Node
}

// predict walks the tree for one feature vector.
func (n *Node) predict(x []float64) float64 {
	for n.Left != nil {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// fitTree grows a regression tree on the rows selected by idx, greedily
// choosing the split with the largest squared-error reduction at each node.
// The procedure is fully deterministic: features are scanned in order and
// ties keep the first candidate.
func fitTree(X [][]float64, y []float64, idx []int, maxDepth, minLeaf int) *Node {
	return growNode(X, y, idx, 0, maxDepth, minLeaf)
}

func growNode(X [][]float64, y []float64, idx []int, depth, maxDepth, minLeaf int) *Node {
	node := &Node{Value: meanAt(y, idx)}
	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return node
	}

	feature, threshold, ok := bestSplit(X, y, idx, minLeaf)
	if !ok {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	node.Left = growNode(X, y, left, depth+1, maxDepth, minLeaf)
	node.Right = growNode(X, y, right, depth+1, maxDepth, minLeaf)
	return node
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children. Returns ok=false when no split
// separates the rows (all feature values identical) or none satisfies the
// minimum leaf size.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (feature int, threshold float64, ok bool) {
	nFeatures := len(X[idx[0]])

	var total, totalSq float64
	for _, i := range idx {
		total += y[i]
		totalSq += y[i] * y[i]
	}
	n := float64(len(idx))
	baseSSE := totalSq - total*total/n

	bestGain := 1e-12 // require a strictly positive reduction

	order := make([]int, len(idx))
	for f := 0; f < nFeatures; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return X[order[a]][f] < X[order[b]][f]
		})

		var leftSum, leftSq float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// Can only split between distinct feature values.
			if X[order[pos]][f] == X[order[pos+1]][f] {
				continue
			}
			nl := float64(pos + 1)
			nr := n - nl
			if int(nl) < minLeaf || int(nr) < minLeaf {
				continue
			}
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			gain := baseSSE - sse
			if gain > bestGain {
				bestGain = gain
				feature = f
				threshold = (X[order[pos]][f] + X[order[pos+1]][f]) / 2
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += y[i]
	}
	return sum / float64(len(idx))
}
