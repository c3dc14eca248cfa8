package grid

// Mount is the container a grid renders into. A grid calls it only from its loop goroutine,
// so implementations need no locking of their own unless they are read elsewhere.
type Mount interface {
	// RenderHeader draws the header cells and the sort indicator.
	RenderHeader(schema *Schema, sort SortSpec)
	// RenderBody replaces the body rows, or appends update.Rows when update.Replace is false.
	RenderBody(schema *Schema, update BodyUpdate)
	// RenderStatus draws the loading line, the empty placeholder or the error affordance.
	RenderStatus(status Status)
}

type BodyUpdate struct {
	Rows    []Row
	Replace bool
}

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusEmpty
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusEmpty:
		return "empty"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type Status struct {
	Kind      StatusKind
	Exhausted bool
	Total     int
	Err       error
}

type nopMount struct{}

func (nopMount) RenderHeader(*Schema, SortSpec) {}
func (nopMount) RenderBody(*Schema, BodyUpdate) {}
func (nopMount) RenderStatus(Status) {}
