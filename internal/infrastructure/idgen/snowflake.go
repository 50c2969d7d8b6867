// Package idgen issues invoice numbers from a snowflake node.
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
)

// InvoicePrefix starts every invoice number
const InvoicePrefix = "INV-"

var _ commissionapp.InvoiceNumberGenerator = (*SnowflakeGenerator)(nil)

// SnowflakeGenerator issues "INV-<snowflake id>" numbers. Numbers are unique
// across replicas as long as every replica runs with its own node id, and
// sort by issue time.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator for node nodeID (0-1023)
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

// NextInvoiceNumber returns the next invoice number
func (g *SnowflakeGenerator) NextInvoiceNumber() string {
	return InvoicePrefix + g.node.Generate().String()
}
