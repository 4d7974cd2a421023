package snapshot

import "sort"

// EditScript transforms an old item sequence into a new one.
//
// Applying it in order reproduces the new sequence: remove Removes and the
// old positions of Moves (descending), insert Inserts and Moves at their new
// positions (ascending), then reload Reloads in place.
type EditScript struct {
	Removes []int  // old indices, ascending
	Inserts []int  // new indices, ascending
	Moves   []Move // ascending by To
	Reloads []int  // new indices of kept items whose content changed, ascending
}

type Move struct {
	From int // old index
	To   int // new index
}

// Empty reports whether the script changes nothing.
func (e EditScript) Empty() bool {
	return len(e.Removes) == 0 && len(e.Inserts) == 0 && len(e.Moves) == 0 && len(e.Reloads) == 0
}

// Diff matches items by Key. Unmatched old items are removed, unmatched new
// items inserted, and matched items that differ are reloaded rather than
// replaced. Matched items whose relative order changed become moves; the
// longest run that kept its order stays put.
func Diff(old, new []Item) EditScript {
	var script EditScript

	oldIndex := make(map[string]int, len(old))
	for i, it := range old {
		oldIndex[it.Key()] = i
	}
	newKeys := make(map[string]struct{}, len(new))
	for _, it := range new {
		newKeys[it.Key()] = struct{}{}
	}

	for i, it := range old {
		if _, ok := newKeys[it.Key()]; !ok {
			script.Removes = append(script.Removes, i)
		}
	}

	// Old positions of matched items, in new order.
	var commonNew, commonOld []int
	for j, it := range new {
		i, ok := oldIndex[it.Key()]
		if !ok {
			script.Inserts = append(script.Inserts, j)
			continue
		}
		commonNew = append(commonNew, j)
		commonOld = append(commonOld, i)
		if !old[i].Same(it) {
			script.Reloads = append(script.Reloads, j)
		}
	}

	stay := longestIncreasing(commonOld)
	for k := range commonNew {
		if !stay[k] {
			script.Moves = append(script.Moves, Move{From: commonOld[k], To: commonNew[k]})
		}
	}
	return script
}

// longestIncreasing marks the members of one longest strictly increasing
// subsequence of seq.
func longestIncreasing(seq []int) []bool {
	keep := make([]bool, len(seq))
	if len(seq) == 0 {
		return keep
	}
	// tails[k] is the index of the smallest tail of a run of length k+1;
	// prev links each element to its predecessor in the run, -1 for none.
	tails := []int{}
	prev := make([]int, len(seq))
	for i, v := range seq {
		pos := sort.Search(len(tails), func(k int) bool { return seq[tails[k]] >= v })
		if pos > 0 {
			prev[i] = tails[pos-1]
		} else {
			prev[i] = -1
		}
		if pos == len(tails) {
			tails = append(tails, i)
		} else {
			tails[pos] = i
		}
	}
	for i := tails[len(tails)-1]; i >= 0; i = prev[i] {
		keep[i] = true
	}
	return keep
}

// Apply runs script against old and returns the result. It is the
// reference for any list host that applies scripts incrementally.
func Apply(old, new []Item, script EditScript) []Item {
	drop := make(map[int]bool, len(script.Removes)+len(script.Moves))
	for _, i := range script.Removes {
		drop[i] = true
	}
	for _, m := range script.Moves {
		drop[m.From] = true
	}
	out := make([]Item, 0, len(new))
	for i, it := range old {
		if !drop[i] {
			out = append(out, it)
		}
	}

	adds := make([]int, 0, len(script.Inserts)+len(script.Moves))
	adds = append(adds, script.Inserts...)
	for _, m := range script.Moves {
		adds = append(adds, m.To)
	}
	sort.Ints(adds)
	for _, j := range adds {
		out = append(out, Item{})
		copy(out[j+1:], out[j:])
		out[j] = new[j]
	}

	for _, j := range script.Reloads {
		out[j] = new[j]
	}
	return out
}
