package database

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yishak-cs/cinetune/internal/logger"
)

// Neo4jClient wraps the Neo4j driver with application-specific methods
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	log      *logger.Logger
}

// Config holds the Neo4j connection configuration
type Config struct {
	URI      string
	Username string
	Password string
	Database string // typically "neo4j" for AuraDB
}

// NewNeo4jClient creates a new Neo4j client connection
func NewNeo4jClient(config Config, log *logger.Logger) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(config.URI, neo4j.BasicAuth(config.Username, config.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	log.Info("connected to Neo4j", "uri", config.URI, "database", config.Database)
	return &Neo4jClient{
		driver:   driver,
		database: config.Database,
		log:      log.With("component", "neo4j"),
	}, nil
}

// Close closes the Neo4j driver connection
func (c *Neo4jClient) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// ExecuteWrite runs a write query and discards its rows.
func (c *Neo4jClient) ExecuteWrite(ctx context.Context, query string, params map[string]interface{}) error {
	_, err := c.ExecuteWriteWithResult(ctx, query, params)
	return err
}

// ExecuteWriteWithResult runs a query on a writer and returns its rows.
func (c *Neo4jClient) ExecuteWriteWithResult(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	rows, err := c.run(ctx, query, params, neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return nil, fmt.Errorf("failed to execute write query: %w", err)
	}
	return rows, nil
}

// ExecuteRead runs a query on a reader and returns its rows.
func (c *Neo4jClient) ExecuteRead(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	rows, err := c.run(ctx, query, params, neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, fmt.Errorf("failed to execute read query: %w", err)
	}
	return rows, nil
}

func (c *Neo4jClient) run(ctx context.Context, query string, params map[string]interface{}, routing neo4j.ExecuteQueryConfigurationOption) ([]map[string]interface{}, error) {
	start := time.Now()
	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, params,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database),
		routing)
	if err != nil {
		return nil, err
	}
	c.log.Debug("cypher executed",
		"rows", len(result.Records),
		"duration_ms", time.Since(start).Milliseconds())
	return recordsToMaps(result.Records), nil
}

// recordsToMaps converts records to one map per row keyed by column.
func recordsToMaps(records []*neo4j.Record) []map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		recordMap := make(map[string]interface{}, len(record.Keys))
		for i, key := range record.Keys {
			recordMap[key] = record.Values[i]
		}
		results = append(results, recordMap)
	}
	return results
}

// Health checks the database connection health
func (c *Neo4jClient) Health(ctx context.Context) error {
	if _, err := c.ExecuteRead(ctx, "RETURN 1", nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// ExecuteWriteTransaction executes multiple write operations in a transaction
func (c *Neo4jClient) ExecuteWriteTransaction(ctx context.Context, work func(neo4j.ManagedTransaction) (interface{}, error)) (interface{}, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: c.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, work)
	if err != nil {
		return nil, fmt.Errorf("failed to execute write transaction: %w", err)
	}

	return result, nil
}
