package block

import (
	"math"
	"slices"

	"github.com/matzehuels/blockstack/pkg/geom"
)

// ConnectionDB indexes the tracked connections of one type, sorted by y so
// that proximity queries only scan a horizontal band.
type ConnectionDB struct {
	conns []*Connection
}

// Len returns the number of indexed connections.
func (db *ConnectionDB) Len() int { return len(db.conns) }

// Contains reports whether c is indexed.
func (db *ConnectionDB) Contains(c *Connection) bool { return db.indexOf(c) >= 0 }

// firstAtOrAbove returns the index of the first connection with y >= y.
func (db *ConnectionDB) firstAtOrAbove(y float64) int {
	i, _ := slices.BinarySearchFunc(db.conns, y, func(c *Connection, y float64) int {
		switch {
		case c.y < y:
			return -1
		case c.y > y:
			return 1
		}
		return 0
	})
	return i
}

func (db *ConnectionDB) indexOf(c *Connection) int {
	for i := db.firstAtOrAbove(c.y); i < len(db.conns) && db.conns[i].y == c.y; i++ {
		if db.conns[i] == c {
			return i
		}
	}
	return -1
}

// add indexes c at its current y.
func (db *ConnectionDB) add(c *Connection) {
	i := db.firstAtOrAbove(c.y)
	db.conns = slices.Insert(db.conns, i, c)
}

// remove drops c, which must still be at the y it was added with.
func (db *ConnectionDB) remove(c *Connection) {
	if i := db.indexOf(c); i >= 0 {
		db.conns = slices.Delete(db.conns, i, i+1)
		return
	}
	// Fall back to a scan if the position drifted.
	db.conns = slices.DeleteFunc(db.conns, func(o *Connection) bool { return o == c })
}

// Neighbours returns every indexed connection within radius of p.
func (db *ConnectionDB) Neighbours(p geom.Coordinate, radius float64) []*Connection {
	var out []*Connection
	for i := db.firstAtOrAbove(p.Y - radius); i < len(db.conns); i++ {
		c := db.conns[i]
		if c.y > p.Y+radius {
			break
		}
		if geom.Distance(p, c.Position()) <= radius {
			out = append(out, c)
		}
	}
	return out
}

// Closest returns the nearest indexed connection within maxRadius of p that
// accept allows, and its distance. It returns nil when none qualifies.
func (db *ConnectionDB) Closest(p geom.Coordinate, maxRadius float64, accept func(*Connection) bool) (*Connection, float64) {
	var best *Connection
	bestDist := math.Inf(1)
	for _, c := range db.Neighbours(p, maxRadius) {
		d := geom.Distance(p, c.Position())
		if d < bestDist && (accept == nil || accept(c)) {
			best, bestDist = c, d
		}
	}
	return best, bestDist
}
