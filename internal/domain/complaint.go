package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints. All six
// directed transitions between the three states are permitted.
type ComplaintStatus string

const (
	StatusPending    ComplaintStatus = "Pending"
	StatusInProgress ComplaintStatus = "In Progress"
	StatusResolved   ComplaintStatus = "Resolved"
)

// Valid reports whether the status is one of the three known values.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// ComplaintCategory enumerates the fixed set of civic issue categories.
type ComplaintCategory string

const (
	CategoryPothole           ComplaintCategory = "Pothole"
	CategoryGarbageCollection ComplaintCategory = "Garbage Collection"
	CategoryWaterlogging      ComplaintCategory = "Waterlogging"
	CategoryStreetLighting    ComplaintCategory = "Street Lighting"
	CategoryTrafficSignal     ComplaintCategory = "Traffic Signal"
	CategoryParkMaintenance   ComplaintCategory = "Park Maintenance"
	CategoryNoisePollution    ComplaintCategory = "Noise Pollution"
	CategoryOther             ComplaintCategory = "Other"
)

// Categories lists every valid category in declaration order.
func Categories() []ComplaintCategory {
	return []ComplaintCategory{
		CategoryPothole,
		CategoryGarbageCollection,
		CategoryWaterlogging,
		CategoryStreetLighting,
		CategoryTrafficSignal,
		CategoryParkMaintenance,
		CategoryNoisePollution,
		CategoryOther,
	}
}

// Valid reports whether the category is one of the eight known values.
func (c ComplaintCategory) Valid() bool {
	for _, candidate := range Categories() {
		if c == candidate {
			return true
		}
	}
	return false
}

// ComplaintPriority enumerates triage urgency.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "Low"
	PriorityMedium ComplaintPriority = "Medium"
	PriorityHigh   ComplaintPriority = "High"
)

// Valid reports whether the priority is one of the three known values.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Coordinates is an optional geo reference for a complaint.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are in range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Comment is an embedded entry in a complaint's thread. Comments have no
// identity outside their parent; the author is a display name, not a
// strong reference. The sequence is append-only and insertion order is
// display order.
type Comment struct {
	Text      string    `json:"text"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// Complaint is the aggregate for citizen-filed civic issues.
//
// ResolvedAt is sticky: it is set exactly once, on the first transition
// into Resolved, and is never cleared even if the status later regresses.
type Complaint struct {
	ID          string
	Title       string
	Category    ComplaintCategory
	Description string
	Location    string
	ImageURL    *string
	Status      ComplaintStatus
	Priority    ComplaintPriority
	Tags        []string
	Coordinates *Coordinates
	CreatedBy   *string
	AssignedTo  *string
	ResolvedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []Comment
}

// UserRef is the read-time resolution of a weak user reference for
// presentation.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// ComplaintDetail is a complaint with its creator/assignee references
// resolved.
type ComplaintDetail struct {
	Complaint
	Creator  *UserRef
	Assignee *UserRef
}
