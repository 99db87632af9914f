package migrate

import (
	"fmt"

	"github.com/kynkyro/shaderstore-backend/pkg/db"
	"github.com/kynkyro/shaderstore-backend/pkg/db/models"
)

// AutoMigrateSQLite creates the order history tables on a sqlite connection.
// Goose migrations are Postgres-only; dev/test sqlite databases take this path.
func AutoMigrateSQLite(client *db.Client) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	return client.DB().AutoMigrate(&models.Order{}, &models.OrderLineItem{})
}
