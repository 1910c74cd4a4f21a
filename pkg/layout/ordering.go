package layout

import (
	"cmp"
	"slices"

	"github.com/matzehuels/branchview/pkg/dag"
)

// Orderer determines the cross-axis sequence of nodes in each rank.
// Implementations must be deterministic.
type Orderer interface {
	OrderRows(g *dag.DAG) map[int][]string
}

// InputOrder keeps nodes in the order they were added to the graph.
type InputOrder struct{}

// OrderRows implements Orderer.
func (InputOrder) OrderRows(g *dag.DAG) map[int][]string {
	orders := make(map[int][]string, g.RowCount())
	for _, r := range g.RowIDs() {
		orders[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	return orders
}

// Barycentric reduces edge crossings with the barycenter heuristic.
//
// Starting from input order, each pass sweeps down (ordering a rank by the
// mean position of its parents in the rank above) and then up (by the mean
// position of its children in the rank below). The ordering with the fewest
// crossings seen is kept, so the result is never worse than input order.
// Nodes without neighbors in the fixed rank hold their current slot.
type Barycentric struct {
	Passes int // sweep pairs; 0 keeps input order
}

// OrderRows implements Orderer.
func (b Barycentric) OrderRows(g *dag.DAG) map[int][]string {
	orders := InputOrder{}.OrderRows(g)
	best := cloneOrders(orders)
	bestCrossings := dag.CountCrossings(g, orders)

	rows := g.RowIDs()
	for pass := 0; pass < b.Passes && bestCrossings > 0; pass++ {
		for i := 1; i < len(rows); i++ {
			sortByBarycenter(orders[rows[i]], dag.PosMap(orders[rows[i-1]]), g.Parents)
		}
		for i := len(rows) - 2; i >= 0; i-- {
			sortByBarycenter(orders[rows[i]], dag.PosMap(orders[rows[i+1]]), g.Children)
		}

		if c := dag.CountCrossings(g, orders); c < bestCrossings {
			best = cloneOrders(orders)
			bestCrossings = c
		}
	}
	return best
}

func sortByBarycenter(row []string, fixed map[string]int, neighbors func(string) []string) {
	bary := make(map[string]float64, len(row))
	for i, id := range row {
		sum, n := 0, 0
		for _, nb := range neighbors(id) {
			if p, ok := fixed[nb]; ok {
				sum += p
				n++
			}
		}
		if n == 0 {
			bary[id] = float64(i)
			continue
		}
		bary[id] = float64(sum) / float64(n)
	}
	slices.SortStableFunc(row, func(a, b string) int {
		return cmp.Compare(bary[a], bary[b])
	})
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range orders {
		out[r] = slices.Clone(ids)
	}
	return out
}
