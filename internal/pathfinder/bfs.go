// Package pathfinder implements breadth-first route discovery over a graph
// that is only known through a neighbor lookup function.
package pathfinder

import "context"

// NeighborFunc returns the neighbors of node in the order they should be
// expanded. It may block on I/O.
type NeighborFunc[T comparable] func(ctx context.Context, node T) ([]T, error)

// FindPath returns the shortest sequence of nodes from start to end, both
// inclusive. When several shortest paths exist, the first one discovered in
// neighbor order wins.
//
// A nil path with a nil error means end is unreachable. Errors come only from
// the neighbor lookup or from ctx.
func FindPath[T comparable](ctx context.Context, start, end T, neighbors NeighborFunc[T]) ([]T, error) {
	if start == end {
		return []T{start}, nil
	}

	visited := map[T]bool{start: true}
	parent := make(map[T]T)
	queue := []T{start}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current := queue[0]
		queue = queue[1:]

		next, err := neighbors(ctx, current)
		if err != nil {
			return nil, err
		}

		for _, n := range next {
			if visited[n] {
				continue
			}
			visited[n] = true
			parent[n] = current

			if n == end {
				return reconstruct(parent, start, end), nil
			}
			queue = append(queue, n)
		}
	}

	return nil, nil
}

func reconstruct[T comparable](parent map[T]T, start, end T) []T {
	path := []T{end}
	for cur := end; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
