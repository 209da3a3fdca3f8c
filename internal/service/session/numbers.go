package session

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const DefaultNumberPrefix = "AS"

// NumberGenerator issues session numbers that are unique across nodes as
// long as every node runs with a distinct node ID.
type NumberGenerator struct {
	node   *snowflake.Node
	prefix string
}

func NewNumberGenerator(nodeID int64, prefix string) (*NumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("session number node %d: %w", nodeID, err)
	}
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &NumberGenerator{node: node, prefix: prefix}, nil
}

func (g *NumberGenerator) Next() string {
	return g.prefix + "-" + g.node.Generate().String()
}

// ScanCode encodes the printed ticket payload. It is deterministic for a
// given session number, plate and entry instant.
func ScanCode(number, plate string, entry time.Time) string {
	payload := strings.Join([]string{number, plate, entry.UTC().Format(time.RFC3339Nano)}, "|")
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}
