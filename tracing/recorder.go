// Package tracing records memory events of a simulation.
package tracing

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/fatih/structs"
	"github.com/pkg/errors"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A Recorder stores rows of flat structs in named tables.
type Recorder interface {
	// CreateTable creates a table whose columns are the fields of
	// sampleEntry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers an entry for a table created before.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables, sorted.
	ListTables() []string

	// Flush writes all buffered entries.
	Flush()

	// Close flushes and closes the database.
	Close() error
}

type table struct {
	structType reflect.Type
	entries    []any
}

// sqliteRecorder writes entries into a SQLite database in batches.
type sqliteRecorder struct {
	sync.Mutex
	*sql.DB

	path       string
	tables     map[string]*table
	batchSize  int
	entryCount int
}

// NewRecorder creates a SQLite database at path + ".sqlite3". An empty path
// picks a unique name. The database is flushed when the program exits
// through atexit.
func NewRecorder(path string) (Recorder, error) {
	if path == "" {
		path = "pagesim_" + xid.New().String()
	}

	filename := path + ".sqlite3"
	if _, err := os.Stat(filename); err == nil {
		return nil, errors.Errorf("file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}

	r := newSQLiteRecorder(db)
	r.path = filename

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// NewRecorderWithDB creates a recorder that writes into an open database.
func NewRecorderWithDB(db *sql.DB) Recorder {
	return newSQLiteRecorder(db)
}

func newSQLiteRecorder(db *sql.DB) *sqliteRecorder {
	return &sqliteRecorder{
		DB:        db,
		batchSize: 100000,
		tables:    make(map[string]*table),
	}
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case
		reflect.Bool,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

func entryMustBeFlat(entry any) {
	t := reflect.TypeOf(entry)
	if t.Kind() != reflect.Struct {
		log.Panicf("entry of type %s is not a struct", t)
	}

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !isAllowedKind(f.Type.Kind()) {
			log.Panicf("field %s of %s has unsupported kind %s",
				f.Name, t, f.Type.Kind())
		}
	}
}

func (r *sqliteRecorder) CreateTable(tableName string, sampleEntry any) {
	r.Lock()
	defer r.Unlock()

	entryMustBeFlat(sampleEntry)

	if _, exists := r.tables[tableName]; exists {
		log.Panicf("table %s already exists", tableName)
	}

	fields := strings.Join(structs.Names(sampleEntry), ", \n\t")
	r.mustExecute("CREATE TABLE " + tableName + " (\n\t" + fields + "\n);")

	r.tables[tableName] = &table{
		structType: reflect.TypeOf(sampleEntry),
	}
}

func (r *sqliteRecorder) InsertData(tableName string, entry any) {
	r.Lock()
	defer r.Unlock()

	t, exists := r.tables[tableName]
	if !exists {
		log.Panicf("table %s does not exist", tableName)
	}

	if reflect.TypeOf(entry) != t.structType {
		log.Panicf("table %s holds %s, got %s",
			tableName, t.structType, reflect.TypeOf(entry))
	}

	t.entries = append(t.entries, entry)

	r.entryCount++
	if r.entryCount >= r.batchSize {
		r.flush()
	}
}

func (r *sqliteRecorder) ListTables() []string {
	r.Lock()
	defer r.Unlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (r *sqliteRecorder) Flush() {
	r.Lock()
	defer r.Unlock()

	r.flush()
}

func (r *sqliteRecorder) flush() {
	if r.entryCount == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for name, t := range r.tables {
		if len(t.entries) == 0 {
			continue
		}

		stmt := r.prepareInsert(name, t.entries[0])
		for _, entry := range t.entries {
			v := reflect.ValueOf(entry)
			args := make([]any, 0, v.NumField())
			for i := 0; i < v.NumField(); i++ {
				args = append(args, v.Field(i).Interface())
			}

			if _, err := stmt.Exec(args...); err != nil {
				log.Panicf("inserting into %s: %v", name, err)
			}
		}

		stmt.Close()
		t.entries = nil
	}

	r.entryCount = 0
}

func (r *sqliteRecorder) Close() error {
	r.Flush()

	return r.DB.Close()
}

func (r *sqliteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute: %s\n", query)
		log.Panic(err)
	}

	return res
}

func (r *sqliteRecorder) prepareInsert(tableName string, entry any) *sql.Stmt {
	marks := structs.Names(entry)
	for i := range marks {
		marks[i] = "?"
	}

	stmt, err := r.Prepare("INSERT INTO " + tableName +
		" VALUES (" + strings.Join(marks, ", ") + ")")
	if err != nil {
		log.Panic(err)
	}

	return stmt
}
