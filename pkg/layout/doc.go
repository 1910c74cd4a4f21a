// Package layout places the messages of a branching conversation on a 2-D
// diagram.
//
// # Overview
//
// The [Engine] implements a layered (Sugiyama-style) drawing of the message
// DAG. Given only topology and a flow direction it produces a top-left
// position for every message and the sides where connectors attach:
//
//  1. Ranking: every message gets its longest-path depth from a root via
//     [transform.AssignLayers]. Merge edges rank like parent edges, so a
//     merged message is always drawn after all of its contributing branches.
//  2. Ordering: within each rank, messages start in input order and are
//     refined by barycentric sweeps ([Barycentric]) that reduce crossings.
//  3. Placement: ranks are separated by [Config.RankGap] along the flow axis,
//     messages by [Config.NodeGap] across it, and each rank is centered
//     against the widest one.
//  4. Translation: computed centers are shifted to top-left corners by half
//     the message's footprint.
//
// # Graceful Degradation
//
// Layout never fails. Edges with a missing endpoint (and self-loops) are left
// out of the solve but echoed unchanged in [Result.Edges]. A message the
// solver could not place, such as one with an empty or repeated ID, is
// returned exactly as it was passed in.
//
// # Determinism
//
// Each call builds a fresh solver graph, so nothing from one call can leak
// into the next, and no step depends on map iteration order. The same nodes,
// edges and direction always yield the same positions.
//
// # Footprints
//
// Message sizes come from a [Footprint] lookup. The default is
// [FixedFootprint] with the configured node size; callers with measured
// content can inject their own.
package layout
