// Package state provides keyed per-user session stores for Telegram bots.
// It is domain-agnostic: callers pick the value type they keep per user.
package state
