package ipc

// ConnectionCount reports the size of the broadcast set.
func (h *Hub) ConnectionCount() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return len(h.conns)
}
