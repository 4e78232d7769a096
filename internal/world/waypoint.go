package world

// WaypointID identifies a fixed anchor point on the floor, used for bucket
// storage slots. Transportation markets are situated one per waypoint.
type WaypointID int32

// NoWaypoint marks an absent waypoint reference.
const NoWaypoint WaypointID = -1

// Waypoint is one fixed storage anchor.
type Waypoint struct {
	ID  WaypointID `json:"id"`
	Loc Point      `json:"loc"`
}
