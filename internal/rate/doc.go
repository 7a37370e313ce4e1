// Package rate enforces per-identifier and per-IP login attempt budgets with
// Redis counters. Counters expire on their own cooldown TTL, so a quiet
// identifier costs nothing.
package rate
