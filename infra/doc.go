// Package infra contains technical adapters: snapshot backends, the
// messages API advisor, MQTT publishing, metrics exporters, the rotating
// fault log, logging and Sentry. These packages depend only on the
// interfaces defined in the core packages.
package infra
