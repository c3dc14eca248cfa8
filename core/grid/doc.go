// Package grid implements a sortable, paginated data grid.
//
// A Grid owns a State and drives it from a single event loop goroutine:
// header activations re-sort the rows (in memory for ClientSort grids, through
// a Loader for ServerPaged grids) and scrolling near the bottom pulls the next
// page. Every load carries a Token; issuing a newer load cancels the previous
// token and State.Apply discards any result whose token is stale, so results
// are applied in the order loads were accepted, never in completion order.
//
// Rendering goes through a Mount. The grid re-renders the header only when the
// sort changes and the body only when the row set changes, appending the new
// page instead of redrawing everything.
package grid
