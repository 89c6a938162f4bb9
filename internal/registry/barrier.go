package registry

import "context"

// AwaitReady blocks until u and everything reachable from it have finished
// loading, returning the first load failure it meets. visited must be
// shared, by reference, across every AwaitReady call made for one request:
// a unit already in the set is skipped, which is what lets dependency
// cycles terminate. The second visit to a unit in a cycle is a no-op.
//
// The unit joins visited before its future is awaited, so sibling branches
// of the traversal observe it immediately.
func AwaitReady(ctx context.Context, u *Unit, visited map[*Unit]bool) error {
	if visited[u] {
		return nil
	}
	visited[u] = true

	if err := u.Await(ctx); err != nil {
		return err
	}
	for _, dep := range u.Dependencies() {
		if err := AwaitReady(ctx, dep, visited); err != nil {
			return err
		}
	}
	return nil
}

// Flatten returns the units reachable from roots in depth-first preorder,
// each exactly once. Every returned unit must already be loaded; Flatten
// itself does not await.
func Flatten(roots ...*Unit) []*Unit {
	var order []*Unit
	seen := make(map[*Unit]bool)
	var walk func(u *Unit)
	walk = func(u *Unit) {
		if seen[u] {
			return
		}
		seen[u] = true
		order = append(order, u)
		for _, dep := range u.Dependencies() {
			walk(dep)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return order
}
