// Package id generates the snowflake ids used for request ids, uploads
// and exported files.
package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
	nodeErr  error
)

// New returns a unique, time-ordered id.
func New() (string, error) {
	nodeOnce.Do(func() {
		node, nodeErr = snowflake.NewNode(1)
	})
	if nodeErr != nil {
		return "", fmt.Errorf("id generator: %w", nodeErr)
	}
	return node.Generate().String(), nil
}
