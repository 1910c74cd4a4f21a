// Package transform provides graph transformations that prepare a DAG for
// layered drawing.
//
// # Layer Assignment
//
// [AssignLayers] computes the row (rank) of each node as the longest path
// from any source node. Merge edges and parent edges count the same, so a
// merged message is always drawn after every branch that feeds it.
//
// # Cycles
//
// Conversation graphs are acyclic by construction. Callers that accept
// untrusted input should run [dag.DAG.Validate] first; AssignLayers leaves
// nodes on a cycle at row 0.
package transform
