package mount

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ZebulonRouseFrantzich/esptools/internal/tool"
)

// ErrAlreadyMounted indicates a whole-set mount is still held by a Handle.
var ErrAlreadyMounted = errors.New("tools already mounted")

// Mounter mounts a whole tool set at once and allows a single live Handle.
type Mounter struct {
	mu      sync.Mutex
	session *Session
	active  *Handle
}

// NewMounter creates a Mounter over session.
func NewMounter(session *Session) *Mounter {
	return &Mounter{session: session}
}

// MountAll mounts every tool in tools. It fails with ErrAlreadyMounted while
// a previously returned Handle has not been released. When one tool fails,
// the tools this call mounted are forgotten again.
func (m *Mounter) MountAll(tools []tool.Tool) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrAlreadyMounted
	}

	h := &Handle{mounter: m}
	var added []tool.Tool
	for _, t := range tools {
		_, had := m.session.Path(t)
		mt, err := m.session.Mount(t)
		if err != nil {
			m.session.forget(added...)
			return nil, err
		}
		if !had {
			added = append(added, t)
		}
		h.tools = append(h.tools, mt)
	}

	m.active = h
	return h, nil
}

// Active reports whether a Handle is currently held.
func (m *Mounter) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active != nil
}

// Handle is the result of a whole-set mount. Release it when done.
type Handle struct {
	mounter *Mounter
	tools   []*MountedTool
}

// Tools returns the mounted tools in mount order.
func (h *Handle) Tools() []*MountedTool {
	return append([]*MountedTool(nil), h.tools...)
}

// Tool returns the mounted tool t.
func (h *Handle) Tool(t tool.Tool) (*MountedTool, error) {
	for _, mt := range h.tools {
		if mt.Tool == t {
			return mt, nil
		}
	}
	return nil, fmt.Errorf("%s is not part of this mount", t)
}

// Release unmounts the set and frees the Mounter for the next MountAll.
// Calling it more than once is a no-op.
func (h *Handle) Release() {
	m := h.mounter
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != h {
		return
	}
	m.active = nil
	m.session.Unmount()
}
