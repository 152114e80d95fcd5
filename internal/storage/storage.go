package storage

import "github.com/sebastianleba/mobius-interface-sub000/internal/model"

// Storage defines a sink for quote records.
type Storage interface {
	PutQuoteBatch(records []model.QuoteRecord) error
}
