package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"mit.edu/dsg/goplan/common"
)

// Catalog is the read-only schema source consulted during planning.
// For simplicity, the catalog is serialized as a single JSON blob. The planner never
// mutates a Catalog: tables and columns are shared between every session and every
// expression that references them, and expressions only hold lookup references into it.
//
// IMMUTABILITY & SCHEMA EVOLUTION:
// Schema changes happen outside of planning. A host that changes the schema builds a new
// Catalog and starts new planning sessions against it; sessions already running keep the
// old one.
type Catalog struct {
	catalogState

	// In-memory structures for fast lookups
	tableMap  map[string]*Table          // TableName -> Table
	oidMap    map[common.ObjectID]*Table // TableOid -> Table
	columnMap map[string][]*Table        // ColumnName -> List of Tables containing this column
}

// Column represents the basic unit of a table schema. Ordinal is the declared position
// of the column in its table, starting at 0.
type Column struct {
	Name    string      `json:"name"`
	Type    common.Type `json:"type"`
	Ordinal int         `json:"ordinal"`
}

// Index describes a physical access path or constraint over a set of columns (KeySchema).
// Unique indexes are used by the metadata layer to prove key uniqueness.
type Index struct {
	Oid       common.ObjectID `json:"oid"`
	TableOid  common.ObjectID `json:"table_oid"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`       // "hash" or "btree"
	Unique    bool            `json:"unique"`     // true for primary keys and unique constraints
	KeySchema []string        `json:"key_schema"` // List of column names
}

// Table is the primary metadata structure. It groups columns and their
// associated indexes under a unique ObjectID.
type Table struct {
	Oid     common.ObjectID `json:"oid"`
	Name    string          `json:"name"`
	Columns []Column        `json:"columns"`
	Indexes []Index         `json:"indexes"`
}

// PersistenceProvider abstracts how the catalog is saved to and loaded from disk.
type PersistenceProvider interface {
	LoadCatalogState() (json string, err error)
	SaveCatalogState(json string) error
}

func (t *Table) String() string {
	b, _ := json.MarshalIndent(t, "", "  ")
	return string(b)
}

// NumColumns implements ColumnSet.
func (t *Table) NumColumns() int {
	return len(t.Columns)
}

// Column implements ColumnSet. It returns nil when ordinal is out of range.
func (t *Table) Column(ordinal int) *Column {
	if ordinal < 0 || ordinal >= len(t.Columns) {
		return nil
	}
	return &t.Columns[ordinal]
}

// ColumnByName looks up a declared column.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// UniqueIndexes returns the indexes that enforce uniqueness of their key.
func (t *Table) UniqueIndexes() []Index {
	var out []Index
	for _, idx := range t.Indexes {
		if idx.Unique {
			out = append(out, idx)
		}
	}
	return out
}

type catalogState struct {
	NextId uint32   `json:"next_id"`
	Tables []*Table `json:"tables"`
}

func (c *Catalog) String() string {
	b, _ := json.MarshalIndent(c, "", "  ")
	return string(b)
}

func (c *Catalog) toJSON() (string, error) {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Catalog) fromJSON(jsonData string) error {
	if err := json.Unmarshal([]byte(jsonData), c); err != nil {
		return err
	}
	for _, t := range c.Tables {
		c.index(t)
	}
	return nil
}

// index registers t in the lookup maps. Column ordinals are positional: whatever a
// persisted file says, the i-th declared column has ordinal i.
func (c *Catalog) index(t *Table) {
	for i := range t.Columns {
		t.Columns[i].Ordinal = i
	}
	c.tableMap[t.Name] = t
	c.oidMap[t.Oid] = t
	for _, f := range t.Columns {
		c.columnMap[f.Name] = append(c.columnMap[f.Name], t)
	}
}

// NewCatalog initializes a catalog. It attempts to load existing state
// from the provider; if no state exists, it starts with an empty database.
func NewCatalog(provider PersistenceProvider) (*Catalog, error) {
	result := &Catalog{
		catalogState: catalogState{
			NextId: 0,
			Tables: make([]*Table, 0),
		},
		tableMap:  make(map[string]*Table),
		oidMap:    make(map[common.ObjectID]*Table),
		columnMap: make(map[string][]*Table),
	}

	jsonData, err := provider.LoadCatalogState()
	if errors.Is(err, os.ErrNotExist) {
		// Start from scratch
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if err = result.fromJSON(jsonData); err != nil {
		// Parsing errors are fatal system errors, usually indicating corruption
		return nil, errors.Wrap(err, "failed to parse catalog state")
	}

	return result, nil
}

// AddTable registers a new table in the catalog.
// It assigns a globally unique ObjectID to the table and persists the updated state. If the table with that name
// already exists, it returns DuplicateObjectError.
func (c *Catalog) AddTable(tableName string, columns []Column, provider PersistenceProvider) (*Table, error) {
	if _, exists := c.tableMap[tableName]; exists {
		return nil, common.Error{
			Code:      common.DuplicateObjectError,
			ErrString: fmt.Sprintf("table '%s' already exists", tableName),
		}
	}

	// oid 0 is reserved for INVALID
	c.NextId++

	t := &Table{
		Oid:     common.ObjectID(c.NextId),
		Name:    tableName,
		Columns: append([]Column(nil), columns...),
		Indexes: make([]Index, 0),
	}

	c.Tables = append(c.Tables, t)
	c.index(t)

	jsonData, err := c.toJSON()
	if err != nil {
		return nil, err
	}
	return t, provider.SaveCatalogState(jsonData)
}

// GetTableMetadata fetches the schema for a specific table name.
func (c *Catalog) GetTableMetadata(tableName string) (*Table, error) {
	table, exists := c.tableMap[tableName]
	if !exists {
		return nil, common.Error{
			Code:      common.NoSuchObjectError,
			ErrString: fmt.Sprintf("table '%s' does not exist", tableName),
		}
	}
	return table, nil
}

// GetTableByOid fetches the schema for a table ObjectID.
func (c *Catalog) GetTableByOid(oid common.ObjectID) (*Table, error) {
	table, exists := c.oidMap[oid]
	if !exists {
		return nil, common.Error{
			Code:      common.NoSuchObjectError,
			ErrString: fmt.Sprintf("table oid %d does not exist", oid),
		}
	}
	return table, nil
}

// FindTablesWithColumnName returns all tables that contain a column with
// the given name. Used by hosts to resolve identifiers before planning.
func (c *Catalog) FindTablesWithColumnName(columnName string) []*Table {
	return c.columnMap[columnName]
}

// AddIndex attaches a new index definition to a table. If an index with that name
// already exists, it returns DuplicateObjectError.
func (c *Catalog) AddIndex(indexName string, tableName string, indexType string, unique bool, columnNames []string, provider PersistenceProvider) (*Index, error) {
	table, err := c.GetTableMetadata(tableName)
	if err != nil {
		return nil, err
	}

	for _, idx := range table.Indexes {
		if idx.Name == indexName {
			return nil, common.Error{
				Code:      common.DuplicateObjectError,
				ErrString: fmt.Sprintf("index '%s' already exists on table '%s'", indexName, tableName),
			}
		}
	}

	for _, colName := range columnNames {
		if _, ok := table.ColumnByName(colName); !ok {
			return nil, common.Error{
				Code:      common.NoSuchObjectError,
				ErrString: fmt.Sprintf("column '%s' does not exist in table '%s'", colName, tableName),
			}
		}
	}

	c.NextId++
	idx := Index{
		Oid:       common.ObjectID(c.NextId),
		TableOid:  table.Oid,
		Name:      indexName,
		Type:      indexType,
		Unique:    unique,
		KeySchema: columnNames,
	}

	table.Indexes = append(table.Indexes, idx)

	jsonData, err := c.toJSON()
	if err != nil {
		return nil, err
	}
	return &idx, provider.SaveCatalogState(jsonData)
}

const CatalogFileName = "catalog.json"

type DiskCatalogManager struct {
	rootPath string
}

func NewDiskCatalogManager(rootPath string) *DiskCatalogManager {
	return &DiskCatalogManager{
		rootPath: rootPath,
	}
}

// LoadCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) LoadCatalogState() (string, error) {
	path := filepath.Join(dcm.rootPath, CatalogFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err // Let the caller (Catalog) handle os.ErrNotExist
	}
	return string(content), nil
}

// SaveCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) SaveCatalogState(jsonData string) error {
	// perform an atomic write using a temporary file.
	tmpPath := filepath.Join(dcm.rootPath, CatalogFileName+".tmp")
	finalPath := filepath.Join(dcm.rootPath, CatalogFileName)

	if err := os.WriteFile(tmpPath, []byte(jsonData), 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, finalPath)
}

// MemCatalogManager keeps the serialized catalog in memory. Used by tests and by hosts
// that build their schema programmatically.
type MemCatalogManager struct {
	state string
}

func (m *MemCatalogManager) LoadCatalogState() (string, error) {
	if m.state == "" {
		return "", os.ErrNotExist
	}
	return m.state, nil
}

func (m *MemCatalogManager) SaveCatalogState(jsonData string) error {
	m.state = jsonData
	return nil
}
