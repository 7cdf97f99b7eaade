package lcss

import "sort"

// Concatenator is the operation merge folds with: items are combined
// positionally, left operand first.
type Concatenator[T any] interface {
	Concat(other T) T
}

func flattenForward[T Concatenator[T]](items []T) T {
	acc := items[0]
	for _, item := range items[1:] {
		acc = acc.Concat(item)
	}
	return acc
}

func flattenReverse[T Concatenator[T]](items []T) T {
	acc := items[0]
	for _, item := range items[1:] {
		acc = item.Concat(acc)
	}
	return acc
}

// ForwardMerge scans left to right, folding runs of items satisfying the
// condition into the next item that fails it. A trailing run with no following
// item collapses into a single item.
func ForwardMerge[T Concatenator[T]](mergeList []T, condition func(T) bool) []T {
	items := make([]T, 0, len(mergeList))
	var mergeItems []T
	for _, item := range mergeList {
		if condition(item) {
			mergeItems = append(mergeItems, item)
		} else if len(mergeItems) > 0 {
			// we found a large item and have short items to merge
			mergeItems = append(mergeItems, item)
			items = append(items, flattenForward(mergeItems))
			mergeItems = nil
		} else {
			items = append(items, item)
		}
	}
	if len(mergeItems) > 0 {
		// we got to the end but still have merge items
		items = append(items, flattenForward(mergeItems))
	}
	return items
}

// ReverseMerge is the mirror of ForwardMerge: it scans right to left and folds
// runs into the preceding non-matching item, right-associatively.
func ReverseMerge[T Concatenator[T]](mergeList []T, condition func(T) bool) []T {
	items := make([]T, 0, len(mergeList))
	var mergeItems []T
	for i := len(mergeList) - 1; i >= 0; i-- {
		item := mergeList[i]
		if condition(item) {
			mergeItems = append(mergeItems, item)
		} else if len(mergeItems) > 0 {
			mergeItems = append(mergeItems, item)
			items = append(items, flattenReverse(mergeItems))
			mergeItems = nil
		} else {
			items = append(items, item)
		}
	}
	if len(mergeItems) > 0 {
		items = append(items, flattenReverse(mergeItems))
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items
}

// Merge runs ForwardMerge and, if any element still satisfies the condition
// (a matching run at the very end), re-runs ReverseMerge on the result.
func Merge[T Concatenator[T]](mergeList []T, condition func(T) bool) []T {
	fMerge := ForwardMerge(mergeList, condition)
	for _, item := range fMerge {
		if condition(item) {
			return ReverseMerge(fMerge, condition)
		}
	}
	return fMerge
}

// Compress groups mutually-adjacent cutting points (consecutive trace indices)
// after sorting, keeping the middle point of each group. This stops a cluster
// of poorly matched points from shattering a segment into tiny pieces.
func Compress(cuttingPoints []CuttingPoint) []CuttingPoint {
	if len(cuttingPoints) == 0 {
		return nil
	}
	sorted := make([]CuttingPoint, len(cuttingPoints))
	copy(sorted, cuttingPoints)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].TraceIndex < sorted[j].TraceIndex
	})

	var out []CuttingPoint
	group := []CuttingPoint{sorted[0]}
	for _, cp := range sorted[1:] {
		if cp.TraceIndex <= group[len(group)-1].TraceIndex+1 {
			group = append(group, cp)
			continue
		}
		out = append(out, group[len(group)/2])
		group = []CuttingPoint{cp}
	}
	out = append(out, group[len(group)/2])
	return out
}
