// Package database registers the tier-7 database-CLI/SQL packs.
package database

import (
	"github.com/dlclark/regexp2"

	"github.com/agentguard/dcg/internal/packs"
)

func must(src string) *regexp2.Regexp {
	re, err := packs.CompilePattern(src)
	if err != nil {
		panic(err)
	}
	return re
}

func sqlPack(id, name string, keywords []string) *packs.Pack {
	return &packs.Pack{
		ID:          id,
		Name:        name,
		Description: "Destructive SQL DDL/DML issued via " + name,
		Tier:        packs.TierDatabase,
		Keywords:    keywords,
		Destructive: []packs.DestructivePattern{
			{
				Name:     "drop-database",
				Regex:    must(`\bDROP\s+(DATABASE|SCHEMA)\b`),
				Reason:   "DROP DATABASE/SCHEMA permanently removes every object it contains",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "drop-table",
				Regex:    must(`\bDROP\s+TABLE\b`),
				Reason:   "DROP TABLE permanently removes the table and all of its rows",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "truncate-table",
				Regex:    must(`\bTRUNCATE\s+(TABLE\s+)?\w`),
				Reason:   "TRUNCATE removes every row in the table and cannot be rolled back on most engines",
				Severity: packs.SeverityHigh,
			},
			{
				Name:     "delete-without-where",
				Regex:    must(`\bDELETE\s+FROM\s+\w+\s*(;|$)`),
				Reason:   "DELETE FROM without a WHERE clause removes every row in the table",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// PostgreSQL registers database.postgresql.
func PostgreSQL() *packs.Pack { return sqlPack("database.postgresql", "PostgreSQL", []string{"psql ", "dropdb "}) }

// MySQL registers database.mysql.
func MySQL() *packs.Pack { return sqlPack("database.mysql", "MySQL", []string{"mysql ", "mysqladmin "}) }

// SQLite registers database.sqlite.
func SQLite() *packs.Pack { return sqlPack("database.sqlite", "SQLite", []string{"sqlite3 "}) }

// MongoDB registers database.mongodb.
func MongoDB() *packs.Pack {
	return &packs.Pack{
		ID:          "database.mongodb",
		Name:        "MongoDB",
		Description: "Destructive mongosh/mongo shell operations",
		Tier:        packs.TierDatabase,
		Keywords:    []string{"mongosh", "mongo "},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "drop-collection",
				Regex:    must(`\.drop\s*\(\s*\)`),
				Reason:   "db.collection.drop() removes the collection and all of its documents",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "drop-database",
				Regex:    must(`\.dropDatabase\s*\(\s*\)`),
				Reason:   "db.dropDatabase() removes the entire database",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "delete-many-all",
				Regex:    must(`\.deleteMany\s*\(\s*\{\s*\}\s*\)`),
				Reason:   "deleteMany({}) removes every document in the collection",
				Severity: packs.SeverityHigh,
			},
		},
	}
}

// Redis registers database.redis.
func Redis() *packs.Pack {
	return &packs.Pack{
		ID:          "database.redis",
		Name:        "Redis",
		Description: "Keyspace-wide Redis destructive commands",
		Tier:        packs.TierDatabase,
		Keywords:    []string{"redis-cli", "flushall", "flushdb"},
		Destructive: []packs.DestructivePattern{
			{
				Name:     "flushall",
				Regex:    must(`\bFLUSHALL\b`),
				Reason:   "FLUSHALL removes every key across every database on the server",
				Severity: packs.SeverityCritical,
			},
			{
				Name:     "flushdb",
				Regex:    must(`\bFLUSHDB\b`),
				Reason:   "FLUSHDB removes every key in the currently selected database",
				Severity: packs.SeverityHigh,
			},
		},
	}
}
