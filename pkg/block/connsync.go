package block

// Connections returns the block's connections: output, previous, next and
// every input connection. Input connections of a collapsed block are left
// out unless includeHidden is set; an unrendered block reports none unless
// includeHidden is set.
func (b *Block) Connections(includeHidden bool) []*Connection {
	if !includeHidden && !b.rendered {
		return nil
	}
	var out []*Connection
	for _, c := range []*Connection{b.output, b.previous, b.next} {
		if c != nil {
			out = append(out, c)
		}
	}
	if includeHidden || !b.collapsed {
		for _, in := range b.inputs {
			if in.conn != nil {
				out = append(out, in.conn)
			}
		}
	}
	return out
}

// MoveConnections shifts every connection of a rendered block and of its
// descendants by a delta. Icon anchors are recomputed along the way.
func (b *Block) MoveConnections(dx, dy float64) {
	if !b.rendered || b.isDead() {
		return
	}
	for _, c := range b.Connections(false) {
		c.MoveBy(dx, dy)
	}
	for _, icon := range b.Icons() {
		icon.ComputeIconLocation()
	}
	for _, child := range b.Children() {
		child.MoveConnections(dx, dy)
	}
}

// SetConnectionTracking starts or stops indexing the connections of b and
// of every block below it. Input connections of a collapsed block are
// never touched, so they stay out of the databases.
func (b *Block) SetConnectionTracking(track bool) {
	if b.isDead() {
		return
	}
	if b.previous != nil {
		b.previous.SetTracking(track)
	}
	if b.output != nil {
		b.output.SetTracking(track)
	}
	if b.next != nil {
		b.next.SetTracking(track)
		if child := b.next.TargetBlock(); child != nil {
			child.SetConnectionTracking(track)
		}
	}
	if b.collapsed {
		return
	}
	for _, in := range b.inputs {
		if in.conn == nil {
			continue
		}
		in.conn.SetTracking(track)
		if child := in.conn.TargetBlock(); child != nil {
			child.SetConnectionTracking(track)
		}
	}
}

// updateConnectionLocations anchors every connection at the block's
// position plus its layout offset, then pulls connected children onto
// their superior connection points. Hidden inputs keep their last
// position.
func (b *Block) updateConnectionLocations() {
	tl := b.Position()
	if b.previous != nil {
		b.previous.moveToOffset(tl)
	}
	if b.output != nil {
		b.output.moveToOffset(tl)
	}
	for _, in := range b.inputs {
		c := in.conn
		if c == nil || c.hidden {
			continue
		}
		c.moveToOffset(tl)
		if c.IsConnected() {
			c.tighten()
		}
	}
	if b.next != nil {
		b.next.moveToOffset(tl)
		if b.next.IsConnected() {
			b.next.tighten()
		}
	}
}
