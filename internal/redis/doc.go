// Package redis implements the Redis-backed message stores and the
// broadcast channel.
//
// Two store backends exist: ListStore keeps the whole feed in one list with
// count-bounded retention, ExpiringStore keeps one key per message with a
// store-enforced TTL so messages fade out on their own. PubSub carries the
// push strategy's broadcasts on the "main" channel.
package redis
