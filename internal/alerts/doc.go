// Package alerts contains the pure normalizers that turn raw platform
// webhook payloads into canonical domain.Alert values. Normalization is
// deliberately permissive: unknown event types and malformed payloads map to
// no alert, never to an error, so a webhook sender never sees a delivery
// fail because of a payload shape the bridge does not understand yet.
package alerts
