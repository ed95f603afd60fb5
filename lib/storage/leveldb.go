package storage

import (
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	leveldbStorage "github.com/syndtr/goleveldb/leveldb/storage"
	leveldbUtil "github.com/syndtr/goleveldb/leveldb/util"

	"boscoin.io/benor/lib/errors"
)

type LevelDBBackend struct {
	DB *leveldb.DB
}

func setLevelDBCoreError(err error) error {
	if err == nil {
		return nil
	}

	return errors.NewError(
		errors.StorageCoreError.Code,
		fmt.Sprintf("%s: %s", errors.StorageCoreError.Message, err.Error()),
	)
}

func NewLevelDBBackend(config *Config) (*LevelDBBackend, error) {
	st := &LevelDBBackend{}
	if err := st.Init(config); err != nil {
		return nil, err
	}

	return st, nil
}

func (st *LevelDBBackend) Init(config *Config) (err error) {
	var db *leveldb.DB

	switch config.Scheme {
	case "file":
		if db, err = leveldb.OpenFile(config.Path, nil); err != nil {
			return setLevelDBCoreError(err)
		}
	case "memory":
		if db, err = leveldb.Open(leveldbStorage.NewMemStorage(), nil); err != nil {
			return setLevelDBCoreError(err)
		}
	default:
		return errors.InvalidStorageConfig.Clone().SetData("scheme", config.Scheme)
	}

	st.DB = db

	return
}

func (st *LevelDBBackend) Close() error {
	return st.DB.Close()
}

func (st *LevelDBBackend) Has(k string) (bool, error) {
	ok, err := st.DB.Has([]byte(k), nil)
	if err != nil {
		return false, setLevelDBCoreError(err)
	}

	return ok, nil
}

func (st *LevelDBBackend) GetRaw(k string) ([]byte, error) {
	b, err := st.DB.Get([]byte(k), nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.StorageRecordDoesNotExist.Clone().SetData("key", k)
	}

	return b, setLevelDBCoreError(err)
}

func (st *LevelDBBackend) PutRaw(k string, b []byte) error {
	return setLevelDBCoreError(st.DB.Put([]byte(k), b, nil))
}

// WalkFunc stops the walk by returning false or an error.
type WalkFunc func(key, value []byte) (bool, error)

// Walk visits the records under the prefix in key order.
func (st *LevelDBBackend) Walk(prefix string, walkFunc WalkFunc) error {
	iter := st.DB.NewIterator(leveldbUtil.BytesPrefix([]byte(prefix)), nil)
	defer iter.Release()

	for iter.Next() {
		next, err := walkFunc(iter.Key(), iter.Value())
		if err != nil {
			return err
		}
		if !next {
			break
		}
	}

	return setLevelDBCoreError(iter.Error())
}
