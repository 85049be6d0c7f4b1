package handler

// Session is one bridge connection's portal: the handler plus the function that
// stops its event loop.
type Session struct {
	*PortalHandler
	stop func()
}

func NewSession(handler *PortalHandler, stop func()) *Session {
	return &Session{PortalHandler: handler, stop: stop}
}

func (s *Session) Close() {
	if s.stop != nil {
		s.stop()
	}
}
