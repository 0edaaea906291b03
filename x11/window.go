package x11

// Window is a handle to a server-side window: a resource ID plus the
// connection it lives on. Identity is the ID; the struct itself is
// immutable once created. All methods are fire-and-forget sends.
type Window struct {
	ID uint32
	c  *Conn
}

// WindowFor wraps an existing resource ID, typically one announced by a
// MapRequest event.
func (c *Conn) WindowFor(id uint32) *Window {
	return &Window{ID: id, c: c}
}

// CreateWindow allocates a fresh ID, creates the window with the given
// geometry and attribute values, optionally names it, and maps it.
func (c *Conn) CreateWindow(parent uint32, x, y int16, width, height, borderWidth uint16, title string, values []Value) (*Window, error) {
	id, err := c.NewID()
	if err != nil {
		return nil, err
	}
	w := &Window{ID: id, c: c}

	mask, list := valueList(values)
	req := newRequest(opCreateWindow, 0). // depth: copy from parent
		u32(id).
		u32(parent).
		u16(uint16(x)).
		u16(uint16(y)).
		u16(width).
		u16(height).
		u16(borderWidth).
		u16(WindowClassInputOutput).
		u32(0). // visual: copy from parent
		u32(mask)
	for _, v := range list {
		req.u32(v)
	}
	if err := c.send(req.done()); err != nil {
		return nil, err
	}

	if title != "" {
		if err := w.ChangeProperty(AtomWMName, AtomString, PropModeReplace, []byte(title)); err != nil {
			return nil, err
		}
	}
	return w, w.Map()
}

// ChangeAttributes updates window attributes from ordered {mask, value}
// pairs.
func (w *Window) ChangeAttributes(values []Value) error {
	mask, list := valueList(values)
	req := newRequest(opChangeWindowAttributes, 0).
		u32(w.ID).
		u32(mask)
	for _, v := range list {
		req.u32(v)
	}
	return w.c.send(req.done())
}

// Configure updates window geometry and stacking from ordered
// {mask, value} pairs (x, y, width, height, border width, sibling,
// stack mode).
func (w *Window) Configure(values []Value) error {
	mask, list := valueList(values)
	req := newRequest(opConfigureWindow, 0).
		u32(w.ID).
		u16(uint16(mask)).
		skip(2)
	for _, v := range list {
		req.u32(v)
	}
	return w.c.send(req.done())
}

// MoveResize is Configure specialized to the tiler's needs: position,
// size and border width in one request.
func (w *Window) MoveResize(x, y, width, height, borderWidth int) error {
	return w.Configure([]Value{
		{ConfigX, uint32(int32(x))},
		{ConfigY, uint32(int32(y))},
		{ConfigWidth, uint32(width)},
		{ConfigHeight, uint32(height)},
		{ConfigBorderWidth, uint32(borderWidth)},
	})
}

// Map makes the window visible.
func (w *Window) Map() error {
	return w.c.send(newRequest(opMapWindow, 0).u32(w.ID).done())
}

// Unmap hides the window without touching its resources.
func (w *Window) Unmap() error {
	return w.c.send(newRequest(opUnmapWindow, 0).u32(w.ID).done())
}

// InputFocus directs keyboard input at this window, reverting to
// pointer-root if it becomes unviewable.
func (w *Window) InputFocus() error {
	req := newRequest(opSetInputFocus, InputFocusPointerRoot).
		u32(w.ID).
		u32(TimeCurrentTime).
		done()
	return w.c.send(req)
}

// ChangeProperty replaces, prepends or appends to a window property.
// STRING data uses 8-bit format; everything else is sent as 32-bit
// items.
func (w *Window) ChangeProperty(property, typ uint32, mode byte, data []byte) error {
	format := byte(8)
	units := len(data)
	if typ != AtomString {
		format = 32
		units = len(data) / 4
	}
	req := newRequest(opChangeProperty, mode).
		u32(w.ID).
		u32(property).
		u32(typ).
		u8(format).
		skip(3).
		u32(uint32(units)).
		bytes(data)
	return w.c.send(req.done())
}

// Kill forcibly disconnects the client owning this window.
func (w *Window) Kill() error {
	return w.c.send(newRequest(opKillClient, 0).u32(w.ID).done())
}
