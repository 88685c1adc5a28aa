// Package exporter serializes the KPI document and publishes it.
//
// EncodeDocument produces the canonical form: four-space indentation, keys in
// field order, category keys sorted and a trailing newline. Publisher writes
// those bytes atomically to the local output file and then mirrors them to
// the object store. The local write is the only step that can fail a run;
// upload problems are recorded on the PublishResult and logged.
package exporter
