// Package cache stores synthesized cloud audio on disk so repeated requests
// for the same text, language and speed skip the network. Entries are zstd
// compressed and evicted least recently used first once the configured size
// is exceeded.
package cache
