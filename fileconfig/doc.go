// Package fileconfig backs a logsink.Service with a YAML settings file and
// turns edits of that file into RefreshLevel and RefreshFile calls.
//
//	level: info        # trace, debug, info, warn, error, off
//	max_size_kb: 128   # rotation threshold
//	max_count: 8       # archives kept, 0 keeps none
//	dir: logs          # relative to the settings file
package fileconfig
