//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS File(
		path STRING,
		seq INT64,
		language STRING,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Symbol(
		id STRING,
		name STRING,
		kind STRING,
		signature STRING,
		owner STRING,
		file_path STRING,
		line INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Module(
		name STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEFINES(FROM File TO Symbol)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM File TO Module, names STRING, line INT64)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddFile inserts a File node.
func (s *KuzuStore) AddFile(_ context.Context, file StoredFile) error {
	return s.exec(
		"CREATE (f:File {path: $path, seq: $seq, language: $lang})",
		map[string]any{
			"path": file.Path,
			"seq":  int64(file.Seq),
			"lang": string(file.Language),
		},
	)
}

// AddSymbol upserts a Symbol node and links it to its file.
func (s *KuzuStore) AddSymbol(_ context.Context, sym Symbol) error {
	params := map[string]any{
		"id":   symbolID(sym),
		"name": sym.Name,
		"kind": string(sym.Kind),
		"sig":  sym.Signature,
		"own":  sym.Owner,
		"fp":   sym.FilePath,
		"line": int64(sym.LineNumber),
	}
	if err := s.exec(
		`MERGE (s:Symbol {id: $id})
		 SET s.name = $name, s.kind = $kind, s.signature = $sig,
		     s.owner = $own, s.file_path = $fp, s.line = $line`,
		params,
	); err != nil {
		return err
	}
	return s.exec(
		`MATCH (f:File {path: $fp}), (s:Symbol {id: $id})
		 MERGE (f)-[:DEFINES]->(s)`,
		map[string]any{"fp": sym.FilePath, "id": params["id"]},
	)
}

// AddImport links a file to the imported module, creating the module node
// on first use.
func (s *KuzuStore) AddImport(_ context.Context, filePath string, imp ImportInfo) error {
	mod := moduleName(imp)
	if err := s.exec("MERGE (m:Module {name: $name})", map[string]any{"name": mod}); err != nil {
		return err
	}
	return s.exec(
		`MATCH (f:File {path: $fp}), (m:Module {name: $mod})
		 CREATE (f)-[:IMPORTS {names: $names, line: $line}]->(m)`,
		map[string]any{
			"fp":    filePath,
			"mod":   mod,
			"names": strings.Join(imp.Names, ","),
			"line":  int64(imp.LineNumber),
		},
	)
}

// ---------- Read operations ----------

// ListFiles returns all File nodes ordered by insertion sequence.
func (s *KuzuStore) ListFiles(_ context.Context) ([]StoredFile, error) {
	rows, err := s.query("MATCH (f:File) RETURN f.path, f.seq, f.language ORDER BY f.seq", nil)
	if err != nil {
		return nil, err
	}
	out := make([]StoredFile, 0, len(rows))
	for _, r := range rows {
		out = append(out, StoredFile{
			Path:     toString(r[0]),
			Seq:      toInt(r[1]),
			Language: Language(toString(r[2])),
		})
	}
	return out, nil
}

// QuerySymbols returns symbols whose name contains the query string
// (case-insensitive). A limit <= 0 returns all matches.
func (s *KuzuStore) QuerySymbols(_ context.Context, queryStr string, limit int) ([]Symbol, error) {
	cypher := `MATCH (s:Symbol) WHERE lower(s.name) CONTAINS lower($q)
		 RETURN s.name, s.kind, s.file_path, s.signature, s.owner, s.line
		 ORDER BY s.file_path, s.line`
	params := map[string]any{"q": queryStr}
	if limit > 0 {
		cypher += " LIMIT $lim"
		params["lim"] = int64(limit)
	}
	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Symbol, 0, len(rows))
	for _, r := range rows {
		out = append(out, Symbol{
			Name:       toString(r[0]),
			Kind:       SymbolKind(toString(r[1])),
			FilePath:   toString(r[2]),
			Signature:  toString(r[3]),
			Owner:      toString(r[4]),
			LineNumber: toInt(r[5]),
		})
	}
	return out, nil
}

// ---------- Stats ----------

// Stats returns file, function, class and import counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	files, err := s.count("MATCH (n:File) RETURN count(n)", nil)
	if err != nil {
		return nil, err
	}
	funcs, err := s.count("MATCH (n:Symbol) WHERE n.kind = $k RETURN count(n)", map[string]any{"k": string(SymbolKindFunction)})
	if err != nil {
		return nil, err
	}
	classes, err := s.count("MATCH (n:Symbol) WHERE n.kind = $k RETURN count(n)", map[string]any{"k": string(SymbolKindClass)})
	if err != nil {
		return nil, err
	}
	imports, err := s.count("MATCH ()-[r:IMPORTS]->() RETURN count(r)", nil)
	if err != nil {
		return nil, err
	}
	return &GraphStats{
		FileCount:     files,
		FunctionCount: funcs,
		ClassCount:    classes,
		ImportCount:   imports,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

func (s *KuzuStore) count(cypher string, params map[string]any) (int, error) {
	rows, err := s.query(cypher, params)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
