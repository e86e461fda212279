package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/viralforge/mesh/services/integrations/M93-deferred-deeplink-service/internal/domain"
)

// SnowflakeGenerator issues time-ordered ids rendered as ddl-<16 hex chars>.
// Replicas must run with distinct node ids.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

func (g *SnowflakeGenerator) NewDeeplinkID() string {
	return fmt.Sprintf("%s%016x", domain.DeeplinkIDPrefix, g.node.Generate().Int64())
}
