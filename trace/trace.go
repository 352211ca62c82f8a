// Package trace records the message traffic of BSP sessions. A Tracer
// hooks into a session and converts every physical message crossing the
// session boundary into a sample; a Recorder persists the samples.
package trace

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// A Sample is one recorded message crossing a session boundary.
type Sample struct {
	ID        string
	Superstep int
	Direction string
	Kind      string
	Src       int
	Dst       int
	Seq       int
	Bytes     int
}

// Recorder persists traffic samples.
type Recorder interface {
	// Record buffers one sample for writing.
	Record(sample Sample)

	// Flush writes all buffered samples to the backing store.
	Flush()
}

// SQLiteRecorder writes traffic samples into a SQLite database. It is
// safe for sessions on multiple goroutines to share one recorder.
type SQLiteRecorder struct {
	*sql.DB
	statement *sql.Stmt

	lock      sync.Mutex
	dbName    string
	buffered  []Sample
	batchSize int
}

// NewSQLiteRecorder creates a recorder that writes into the database at
// path. An empty path picks a unique name. Call Init before recording.
func NewSQLiteRecorder(path string) *SQLiteRecorder {
	r := &SQLiteRecorder{
		dbName:    path,
		batchSize: 100000,
	}

	atexit.Register(func() { r.Flush() })

	return r
}

// Init establishes the database connection and creates the traffic table.
func (r *SQLiteRecorder) Init() {
	if r.dbName == "" {
		r.dbName = "lockstep_trace_" + xid.New().String()
	}

	filename := r.dbName + ".sqlite3"

	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		panic(err)
	}

	r.DB = db

	r.mustExecute(`
		CREATE TABLE bsp_traffic (
			id TEXT,
			superstep INTEGER,
			direction TEXT,
			kind TEXT,
			src INTEGER,
			dst INTEGER,
			seq INTEGER,
			bytes INTEGER
		)
	`)

	r.statement, err = r.Prepare(`
		INSERT INTO bsp_traffic
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		panic(err)
	}
}

// Record buffers one sample, flushing when the batch limit is reached.
func (r *SQLiteRecorder) Record(sample Sample) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.buffered = append(r.buffered, sample)

	if len(r.buffered) >= r.batchSize {
		r.flushLocked()
	}
}

// Flush writes all buffered samples to the database.
func (r *SQLiteRecorder) Flush() {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.flushLocked()
}

func (r *SQLiteRecorder) flushLocked() {
	if len(r.buffered) == 0 {
		return
	}

	r.mustExecute("BEGIN TRANSACTION")
	defer r.mustExecute("COMMIT TRANSACTION")

	for _, s := range r.buffered {
		_, err := r.statement.Exec(
			s.ID,
			s.Superstep,
			s.Direction,
			s.Kind,
			s.Src,
			s.Dst,
			s.Seq,
			s.Bytes,
		)
		if err != nil {
			panic(err)
		}
	}

	r.buffered = nil
}

func (r *SQLiteRecorder) mustExecute(query string) sql.Result {
	res, err := r.Exec(query)
	if err != nil {
		panic(query + " failed: " + err.Error())
	}

	return res
}
