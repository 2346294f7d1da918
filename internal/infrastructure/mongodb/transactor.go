package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	shareddb "github.com/wms-platform/export-service/pkg/mongodb"
)

// Transactor runs application callbacks inside a MongoDB transaction.
// Requires a replica set; standalone servers reject transactions.
type Transactor struct {
	client *shareddb.Client
}

func NewTransactor(client *shareddb.Client) *Transactor {
	return &Transactor{client: client}
}

func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
