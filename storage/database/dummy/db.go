package dummydb

import (
	"sync"

	"github.com/trezcool/mahudhurio/core/attendance"
	"github.com/trezcool/mahudhurio/core/school"
)

// DB is an in-memory stand-in for the real database, used in tests.
// Writes are atomic under the per-table locks.
type (
	DB struct {
		class      *classTable
		student    *studentTable
		attendance *attendanceTable
	}

	classTable struct {
		sync.RWMutex
		table map[string]*school.Class
		seq   map[string]int
		next  int
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*school.Student
		seq   map[string]int
		next  int
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Event
		seq   map[string]int
		next  int
	}
)

func Open() (*DB, error) {
	db := &DB{
		class:      &classTable{table: make(map[string]*school.Class), seq: make(map[string]int)},
		student:    &studentTable{table: make(map[string]*school.Student), seq: make(map[string]int)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Event), seq: make(map[string]int)},
	}
	return db, nil
}
