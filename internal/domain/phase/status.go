package phase

// Status is the derived progress state of a phase within a project.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusInProgress Status = "in_progress"
	StatusPending    Status = "pending"
)

// Progress pairs a descriptor with its derived status.
type Progress struct {
	Descriptor
	Status Status `json:"status"`
}

// StatusOf derives the status of n relative to the project's current phase.
func StatusOf(n, current Number) Status {
	switch {
	case n < current:
		return StatusCompleted
	case n == current:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// ProgressFor returns all phases with statuses derived from current.
func ProgressFor(current Number) []Progress {
	out := make([]Progress, 0, int(Last))
	for _, d := range descriptors {
		out = append(out, Progress{Descriptor: d, Status: StatusOf(d.Number, current)})
	}
	return out
}
