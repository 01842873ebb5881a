package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
// Each concurrent unit of work in the pipeline carries its own Context;
// transactions are never shared across goroutines.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}
