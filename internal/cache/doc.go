// Package cache mirrors the latest quote and broadcast history into
// Redis so that other processes can read them. Writes are best effort;
// the relay keeps running when Redis is unavailable.
package cache
