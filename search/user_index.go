// Package search keeps a full-text index of usernames.
package search

import (
	"chat-relay/domain"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/blugelabs/bluge"
)

const (
	fieldUsername      = "username"
	fieldUsernameLower = "username_lower"
)

// UserIndex answers case-insensitive "username contains" queries.
type UserIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewUserIndex(writer *bluge.Writer, log *slog.Logger) *UserIndex {
	return &UserIndex{writer: writer, log: log}
}

// OpenUserIndex opens an on-disk index, or an in-memory one when path is empty.
func OpenUserIndex(path string, log *slog.Logger) (*UserIndex, error) {
	config := bluge.InMemoryOnlyConfig()
	if path != "" {
		config = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return NewUserIndex(writer, log), nil
}

// Index adds or replaces a user document.
func (i *UserIndex) Index(user domain.User) error {
	doc := document(user)
	return i.writer.Update(doc.ID(), doc)
}

// Rebuild indexes every given user, typically at boot.
func (i *UserIndex) Rebuild(users []domain.User) error {
	batch := bluge.NewBatch()
	for _, user := range users {
		doc := document(user)
		batch.Update(doc.ID(), doc)
	}
	if err := i.writer.Batch(batch); err != nil {
		return err
	}
	i.log.Info("User index rebuilt", "users", len(users))
	return nil
}

// Search returns up to limit user ids whose username contains query,
// sorted by username, excludeID left out.
func (i *UserIndex) Search(ctx context.Context, query, excludeID string, limit int) ([]string, error) {
	term := strings.ToLower(strings.NewReplacer("*", "", "?", "").Replace(strings.TrimSpace(query)))
	if term == "" || limit <= 0 {
		return []string{}, nil
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	q := bluge.NewWildcardQuery("*" + term + "*").SetField(fieldUsernameLower)
	request := bluge.NewTopNSearch(limit+1, q).SortBy([]string{fieldUsername})
	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, limit)
	match, err := matches.Next()
	for err == nil && match != nil && len(ids) < limit {
		var id string
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				id = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		if id != "" && id != excludeID {
			ids = append(ids, id)
		}
		match, err = matches.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func document(user domain.User) *bluge.Document {
	return bluge.NewDocument(user.ID).
		AddField(bluge.NewKeywordField(fieldUsername, user.Username).StoreValue().Sortable()).
		AddField(bluge.NewKeywordField(fieldUsernameLower, strings.ToLower(user.Username)))
}

func (i *UserIndex) Close() error {
	return i.writer.Close()
}
