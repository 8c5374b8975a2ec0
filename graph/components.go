package graph

import (
	. "github.com/ttpr0/go-hybrid-routing/util"
)

// Labels every node with the id of its (undirected) connected component.
func ConnectedComponents(topology *Topology) Array[int32] {
	groups := NewArray[int32](topology.NodeCount())
	for i := range groups {
		groups[i] = -1
	}
	stack := NewList[int32](100)
	group := int32(0)
	for start := 0; start < topology.NodeCount(); start++ {
		if groups[start] != -1 {
			continue
		}
		groups[start] = group
		stack = stack[:0]
		stack.Add(int32(start))
		for stack.Length() > 0 {
			curr := stack.Last()
			stack = stack[:stack.Length()-1]
			topology.ForAdjacentEdges(curr, func(ref EdgeRef) {
				if groups[ref.OtherID] != -1 {
					return
				}
				groups[ref.OtherID] = group
				stack.Add(ref.OtherID)
			})
		}
		group += 1
	}
	return groups
}

func GetMostCommon[T comparable](arr Array[T]) (T, int) {
	var max_val T
	max_count := 0
	counts := NewDict[T, int](10)
	for i := 0; i < arr.Length(); i++ {
		val := arr[i]
		count := counts[val]
		count += 1
		if count > max_count {
			max_count = count
			max_val = val
		}
		counts[val] = count
	}
	return max_val, max_count
}

// Share of nodes that belong to the largest connected component.
func LargestComponentShare(topology *Topology) float64 {
	if topology.NodeCount() == 0 {
		return 0
	}
	groups := ConnectedComponents(topology)
	_, count := GetMostCommon(groups)
	return float64(count) / float64(topology.NodeCount())
}
