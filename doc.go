// Package logsink provides a process-wide log sink over rs/zerolog that writes
// to a rotating file and mirrors to standard output, and that can be
// reconfigured while the process keeps logging.
//
// Key features
//   - One explicitly initialized Service owns the active sink
//   - RefreshLevel swaps the level specification and console duplication
//     threshold with a single atomic publish; records are filtered against
//     either the old or the new specification, never a mix
//   - RefreshFile resets the rotation threshold, retention count and log
//     directory without closing the live file mid-write
//   - Static module suppression rules are re-applied on every refresh
//   - Emission is lock-free: call sites go through Module(name) and never
//     touch the Service
//
// On disk the live file is "latest.log"; rotated archives are named
// "2006-01-02_15-04-05.log" after the moment of rotation.
//
// Typical usage
//
//	svc := logsink.NewService(cfg, dirs)
//	if err := svc.Initialize(); err != nil { return err }
//	defer svc.Close()
//
//	log := logsink.Module("sync/worker")
//	log.Info().Str("job", id).Msg("processed")
//
//	// later, from a configuration-change notification
//	if err := svc.RefreshLevel(); err != nil { ... }
package logsink
