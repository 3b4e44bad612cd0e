// Package camera owns the map camera: the per-frame arbitration between
// direct manipulation, inertia, ambient drift, scroll pull-back, scripted
// transitions and the exploration boundary.
//
// Responsibilities: a single Controller holds the rendered pose, the resting
// target and the inertia velocity. Input methods mutate the target; Tick
// derives exactly one Mode and runs its rule. Scripted transitions carry a
// token so a completion that arrives after a newer transition or gesture is
// discarded.
//
// Dependency rule: camera depends on motion, geo and config only. It is not
// safe for concurrent use; internal/loop owns it on a single goroutine.
package camera
