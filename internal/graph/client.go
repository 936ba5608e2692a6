package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config carries the Neo4j connection settings.
type Config struct {
	URI      string
	User     string
	Password string
	Database string
}

// Client wraps the Neo4j driver with the session and schema conventions the
// rest of the service relies on.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

const connectTimeout = 10 * time.Second

// New connects to Neo4j, verifies connectivity and ensures the uniqueness
// constraints the upsert queries depend on.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("graph: NEO4J_URI is required")
	}
	if log == nil {
		log = slog.Default()
	}

	auth := neo4j.BasicAuth(cfg.User, cfg.Password, "")
	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth, func(c *neo4j.Config) {
		c.SocketConnectTimeout = connectTimeout
	})
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity: %w", err)
	}

	c := &Client{driver: driver, database: cfg.Database, log: log}
	c.ensureSchema(ctx)
	return c, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
}

var schemaStatements = []string{
	`CREATE CONSTRAINT case_id_unique IF NOT EXISTS FOR (c:Case) REQUIRE c.case_id IS UNIQUE`,
	`CREATE CONSTRAINT case_reference_unique IF NOT EXISTS FOR (c:Case) REQUIRE c.reference IS UNIQUE`,
	`CREATE CONSTRAINT work_item_id_unique IF NOT EXISTS FOR (w:WorkItem) REQUIRE w.work_item_id IS UNIQUE`,
	`CREATE CONSTRAINT disbursement_id_unique IF NOT EXISTS FOR (d:Disbursement) REQUIRE d.disbursement_id IS UNIQUE`,
	`CREATE CONSTRAINT party_id_unique IF NOT EXISTS FOR (p:Party) REQUIRE p.party_id IS UNIQUE`,
	`CREATE CONSTRAINT chunk_id_unique IF NOT EXISTS FOR (ch:DocumentChunk) REQUIRE ch.chunk_id IS UNIQUE`,
	`CREATE INDEX chunk_document_hash_idx IF NOT EXISTS FOR (ch:DocumentChunk) ON (ch.document_hash)`,
}

// ensureSchema is best effort; restricted users may not hold schema rights.
func (c *Client) ensureSchema(ctx context.Context) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			c.log.Warn("schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}
