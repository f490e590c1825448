// Package redis provides a Redis-backed session store and distributed locker
// for running several SmartMeal instances against shared state.
package redis
