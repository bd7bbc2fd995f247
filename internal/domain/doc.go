// Package domain defines the core entities and ports of the message wall:
// messages, viewer identity, the store contract, and the broadcast channel
// contract. It has no dependencies on infrastructure packages.
package domain
