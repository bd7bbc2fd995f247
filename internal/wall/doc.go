// Package wall holds the publish path of the message wall: the Publisher
// that stamps randomized display attributes onto incoming posts, and the
// in-memory store used in single-instance mode.
package wall
