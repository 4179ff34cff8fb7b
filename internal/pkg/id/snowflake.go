package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init initializes the Snowflake node with the given node ID.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
	})
	return err
}

// New generates a new unique, time-ordered ID.
func New() snowflake.ID {
	// no-op when Init already ran
	_ = Init(1)
	return node.Generate()
}

// Source adapts the package generator to history.IDSource.
type Source struct{}

// NextID returns the next id in base 36.
func (Source) NextID() string { return New().Base36() }
