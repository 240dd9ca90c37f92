package sessions

// Note the UI may depend on some of these values, changing them will cause breaking changes
const (
	SessionCookieName = "_board_session"
	SessionCtxKey     = "board_session"
)
