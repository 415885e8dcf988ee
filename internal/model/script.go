// internal/model/script.go
package model

// DispatchLimits are per-script resource ceilings persisted at upload time and
// forwarded to the execution platform at invocation. Nil fields mean "platform
// default"; a row is only stored when at least one field is set.
type DispatchLimits struct {
	ScriptID string `db:"script_id"`
	CPUMs    *int   `json:"cpuMs,omitempty"`
	Memory   *int   `json:"memory,omitempty"`
}

// Empty reports whether no ceiling is set. Empty limits are never persisted so
// a later change of platform defaults is not masked by a stale override row.
func (l DispatchLimits) Empty() bool {
	return l.CPUMs == nil && l.Memory == nil
}

// OutboundWorker associates a script with a secondary script that intercepts
// its outbound calls. The association is read at dispatch time, but nothing
// writes it yet: the feature is unfinished upstream and the write path is
// deliberately absent here too.
type OutboundWorker struct {
	ScriptID         string `db:"script_id"`
	OutboundScriptID string `db:"outbound_script_id"`
}

// UploadRequest is the PUT /script/{name} body.
type UploadRequest struct {
	Script         string         `json:"script"`
	DispatchConfig DispatchConfig `json:"dispatch_config"`
}

type DispatchConfig struct {
	Limits *DispatchLimits `json:"limits,omitempty"`
}
