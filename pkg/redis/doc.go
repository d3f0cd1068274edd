// Package redis provides the redis storage driver for persisted sessions.
//
// Connect dials the server described by Config.ConnectionURL with bounded
// retries. Storage implements session.Storage on top of the connected client,
// namespacing every key with Config.KeyPrefix and passing snapshot lifetimes
// through as native redis expirations. Storage.Ping probes the connection.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := redis.NewStorageWithConfig(client, cfg)
//	persistence := session.New(store)
package redis
