// Package database opens the dashboard's SQLite file and applies its schema
// migrations.
//
// The database holds only the key-value table used by kvstore. Connections
// are limited to one writer, WAL mode is optional, and the file is created
// with owner-only permissions.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Storage.SQLite)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named NNNN_description.up.sql with an optional
// matching .down.sql. They are applied in version order, each in its own
// transaction, and recorded in schema_migrations.
package database
