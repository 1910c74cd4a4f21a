// Package timeline decides which messages of a conversation are visible at a
// point in its history, and drives playback through that history.
//
// # Visibility
//
// A scrub position in [0, 1] maps to a cutoff timestamp between the oldest
// message and a reference "now":
//
//	cutoff = oldest + (now - oldest) * position
//
// A message is visible when its timestamp is at or before the cutoff, and an
// edge when both of its endpoints are. At position 1 everything is visible
// regardless of timestamps. [Window] captures a computed cutoff so a whole
// graph can be filtered without recomputing it per message.
//
// The cutoff is anchored to the wall clock, not to the newest message, so a
// fixed position below 1 reveals more as real time passes. [Player.IsVisible]
// uses the player's clock; [IsVisibleAt] and [Player.IsVisibleAt] pin "now"
// for reproducible results.
//
// # Playback
//
// [Player] is a two-state machine (Idle, Playing) around a position:
//
//	Idle --Start--> Playing   (position reset to 0)
//	Playing --Start|Stop|Reset|SetPosition|Close|complete--> Idle
//
// While Playing, a [Scheduler] ticks every [Config.Tick], advancing the
// position by [Config.Step] until it reaches 1. Every transition out of
// Playing cancels the scheduled tick. Players start Idle at position 1.
package timeline
