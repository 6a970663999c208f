// Package kvstore is the dashboard's persistence boundary: a small
// key-value store holding JSON documents.
//
// Records saved here are the automation rules, the activity log, the
// notification history and the notification preferences. Each is
// written whole under a fixed key and read back at startup.
//
// Two backends are provided:
//
//   - SQLite (default), through the database package and its kv table
//   - BoltDB, a single bucket in a bbolt file
//
// Open picks one from config.StorageConfig.
package kvstore
