package repositories

import (
	"github.com/dgraph-io/badger/v4"
)

// Counts backs the /debug/db endpoint.
type Counts struct {
	Users    int `json:"users"`
	Groups   int `json:"groups"`
	Messages int `json:"messages"`
}

type StatsRepository struct {
	db *badger.DB
}

func NewStatsRepository(db *badger.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) Counts() (Counts, error) {
	var c Counts
	err := r.db.View(func(txn *badger.Txn) error {
		c.Users = count(txn, userPrefix)
		c.Groups = count(txn, groupPrefix)
		c.Messages = count(txn, "msg:")
		return nil
	})
	return c, err
}
