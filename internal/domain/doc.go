// Package domain defines the learner-facing entities produced by the
// generation pipelines and the requests that start them.
//
// JSON field names follow the wire format consumed by the learning
// platform, which mixes snake_case request fields with camelCase
// timestamps.
package domain
