// Point-in-polygon test used for geofence evaluation
package geo

import "fleetops-sim/internal/fleet"

// epsilon keeps the ray-casting division defined on horizontal edges.
const epsilon = 1e-12

// Contains reports whether the point lies inside the polygon using the
// even-odd ray-casting rule. Polygons with fewer than 3 vertices contain
// nothing. Behavior for points exactly on an edge is unspecified.
func Contains(p fleet.Position, polygon []fleet.Position) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := polygon[i].Lat, polygon[i].Lon
		xj, yj := polygon[j].Lat, polygon[j].Lon

		if (yi > p.Lon) != (yj > p.Lon) &&
			p.Lat < xj+(xi-xj)*(p.Lon-yj)/(yi-yj+epsilon) {
			inside = !inside
		}
		j = i
	}
	return inside
}
