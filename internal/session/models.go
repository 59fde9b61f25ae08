package session

// Session is the cached upstream credential and its usage counter. Exactly
// one session record exists at a time; it is owned by the Manager and
// mirrored durably by a Store.
type Session struct {
	Token      string `json:"token"`
	UsageCount int    `json:"usage_count"`
}

// Usable reports whether the session can serve another conversion under the
// given usage ceiling.
func (s Session) Usable(maxUsage int) bool {
	return s.Token != "" && s.UsageCount < maxUsage
}
