package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// SnowflakeGenerator issues time-ordered 63-bit identifiers.
// Every replica must use a distinct node number.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

var _ coreport.IDGenerator = (*SnowflakeGenerator)(nil)

// NewSnowflakeGenerator creates a generator for the given node (0-1023)
func NewSnowflakeGenerator(node int64) (*SnowflakeGenerator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &SnowflakeGenerator{node: n}, nil
}

// NextID returns a new identifier
func (g *SnowflakeGenerator) NextID() uint64 {
	return uint64(g.node.Generate().Int64())
}
