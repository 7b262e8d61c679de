package main

import (
	"os"

	"github.com/leomrlima/nosql/internal/cli/commands"

	// Register the built-in providers.
	_ "github.com/leomrlima/nosql/provider/jsonfile"
	_ "github.com/leomrlima/nosql/provider/neo4jdb"
	_ "github.com/leomrlima/nosql/provider/redisdb"
	_ "github.com/leomrlima/nosql/provider/sqldb"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
