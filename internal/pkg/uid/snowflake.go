package uid

import "github.com/bwmarrin/snowflake"

// Snowflake generates time-sortable numeric IDs.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake returns a Snowflake generator for node 1.
func NewSnowflake() *Snowflake {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err) // only possible with a node id outside [0, 1023]
	}

	return &Snowflake{node: node}
}

// Generate returns a new numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}
