// Package domain holds the core types of the bridge: the canonical Alert
// produced by the normalizers, the OAuthResult published after a completed
// sign-in, the provider's raw TokenGrant, and the NotificationSink interface
// through which everything reaches the hosting application.
package domain
