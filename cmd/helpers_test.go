package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/sells-group/lead-finder/internal/config"
)

// testConfig returns a config backed by a fresh SQLite file.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.SQLitePath = filepath.Join(t.TempDir(), "leads.db")
	c.Generative.Provider = "anthropic"
	c.Anthropic.Key = "sk-ant-test"
	c.Search.Provider = "jina"
	c.Search.BatchSize = 3
	c.Finder.DefaultLimit = 10
	c.Finder.MaxLimit = 100
	c.Finder.BulkBatchSize = 5
	c.Enrich.DefaultThreshold = "medium"
	c.Server.Port = 8080
	c.Server.APIToken = "secret"
	return c
}

// execute runs c.RunE with args and returns what it wrote to stdout.
func execute(t *testing.T, c *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetContext(context.Background())
	t.Cleanup(func() {
		c.SetOut(nil)
		c.SetContext(nil)
	})
	err := c.RunE(c, args)
	return buf.String(), err
}
