package storage

// NewTestJournal opens a journal on a memory leveldb.
func NewTestJournal() *Journal {
	st, err := NewLevelDBBackend(&Config{Scheme: "memory"})
	if err != nil {
		panic(err)
	}

	return NewJournal(st)
}
