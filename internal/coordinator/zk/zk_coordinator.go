package zk

import (
	"fmt"
	"strings"
	"time"

	coordinator "nocturne/internal/coordinator/iface"
	"nocturne/internal/logger"

	"github.com/go-zookeeper/zk"
)

const electionRoot = "/nocturne/leader"

type zkElector struct {
	conn   *zk.Conn
	logger logger.Logger
}

// NewZKElector creates a ZooKeeper-backed leader elector. Leadership is an
// ephemeral node: it evaporates with the holder's session, so a crashed
// leader frees the role without cleanup.
func NewZKElector(servers []string, sessionTimeout time.Duration, log logger.Logger) (coordinator.LeaderElector, error) {
	conn, _, err := zk.Connect(servers, sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to zookeeper: %w", err)
	}

	log.Info("connected to zookeeper",
		logger.Any("servers", servers),
	)

	return &zkElector{
		conn:   conn,
		logger: log.With(logger.String("component", "zk_elector")),
	}, nil
}

func (c *zkElector) Campaign(role, nodeID string) (bool, error) {
	path := electionRoot + "/" + role

	if err := c.ensureParentPath(path); err != nil {
		return false, err
	}

	_, err := c.conn.Create(path, []byte(nodeID), zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
	if err == zk.ErrNodeExists {
		data, _, getErr := c.conn.Get(path)
		if getErr == nil && string(data) == nodeID {
			// Session still holds it from a previous campaign
			return true, nil
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to campaign for %s: %w", role, err)
	}

	c.logger.Info("acquired leadership",
		logger.String("role", role),
		logger.String("node_id", nodeID),
	)

	return true, nil
}

func (c *zkElector) Resign(role, nodeID string) error {
	path := electionRoot + "/" + role

	data, stat, err := c.conn.Get(path)
	if err == zk.ErrNoNode {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read leadership node: %w", err)
	}

	// Only the holder may resign
	if string(data) != nodeID {
		return nil
	}

	if err := c.conn.Delete(path, stat.Version); err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to resign %s: %w", role, err)
	}

	c.logger.Info("resigned leadership",
		logger.String("role", role),
		logger.String("node_id", nodeID),
	)

	return nil
}

func (c *zkElector) Close() error {
	c.conn.Close()
	return nil
}

// ensureParentPath creates the persistent ancestors of an election node
func (c *zkElector) ensureParentPath(path string) error {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	current := ""

	// Everything but the leaf; the leaf is the ephemeral election node
	for _, part := range parts[:len(parts)-1] {
		current += "/" + part
		_, err := c.conn.Create(current, nil, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return fmt.Errorf("failed to create parent path %s: %w", current, err)
		}
	}

	return nil
}
