package repositories

import (
	"github.com/dgraph-io/badger/v4"
)

// scan walks every key under prefix in key order.
func scan(txn *badger.Txn, prefix string, fn func(key string, value []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		err := item.Value(func(val []byte) error {
			return fn(string(item.Key()), val)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// count returns the number of keys under prefix without loading values.
func count(txn *badger.Txn, prefix string) int {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	it := txn.NewIterator(options)
	defer it.Close()

	n := 0
	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		n++
	}
	return n
}
