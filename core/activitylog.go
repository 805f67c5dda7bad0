package core

// appendLog appends one immutable entry to the activity log. The log is
// audit-only: nothing in the scoring or resolution path reads it back.
func (s *GameState) appendLog(timestamp int64, actor Actor, action, detail string) {
	s.ActivityLog = append(s.ActivityLog, ActivityEntry{
		ID:        newID(),
		Timestamp: timestamp,
		Actor:     actor,
		Action:    action,
		Detail:    detail,
	})
}
