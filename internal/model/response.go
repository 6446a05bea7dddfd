package model

// Response is the outcome of a board operation. The zero value is not a
// valid outcome; it accompanies a non-nil error.
type Response int

const (
	Created Response = iota + 1
	Updated
	Deleted
	NotFound
	Conflict
	BadRequest
)

func (r Response) String() string {
	switch r {
	case Created:
		return "Created"
	case Updated:
		return "Updated"
	case Deleted:
		return "Deleted"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	case BadRequest:
		return "BadRequest"
	default:
		return "Unknown"
	}
}

// OK reports whether the response signals success.
func (r Response) OK() bool {
	return r == Created || r == Updated || r == Deleted
}
