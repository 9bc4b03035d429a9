package partition

import "errors"

var (
	// ErrInvalidK is returned when the block count is not positive.
	ErrInvalidK = errors.New("partition: k must be positive")

	// ErrVertexOutOfRange is returned for a vertex id outside [0, n).
	ErrVertexOutOfRange = errors.New("partition: vertex out of range")

	// ErrPartitionOutOfRange is returned for a block id outside [0, k).
	ErrPartitionOutOfRange = errors.New("partition: block out of range")

	// ErrSelfLoop is returned when an edge connects a vertex with itself.
	ErrSelfLoop = errors.New("partition: self-loops are not supported")

	// ErrZeroWeight is returned for edges without weight.
	ErrZeroWeight = errors.New("partition: edge weight must be positive")

	// ErrAssignmentSize is returned when the assignment does not cover every vertex.
	ErrAssignmentSize = errors.New("partition: assignment length differs from vertex count")

	// ErrOriginalDegree is returned when an original degree is below the current degree.
	ErrOriginalDegree = errors.New("partition: original degree below weighted degree")

	// ErrStaleMove is returned when the vertex is no longer in the expected source block.
	ErrStaleMove = errors.New("partition: vertex is not in the source block")

	// ErrSameBlock is returned for a move whose source and target block are equal.
	ErrSameBlock = errors.New("partition: source and target block are equal")

	// ErrLastVertex is returned for a move that would leave its source block empty.
	ErrLastVertex = errors.New("partition: move would empty the source block")
)
