package usecase

// ClipResult is the outcome of one candidate. FailedAt names the stage a
// failed clip stopped in.
type ClipResult struct {
	Index     int
	State     ClipState
	FailedAt  ClipState
	Err       error
	Title     string
	Captioned bool
	Start     float64
	End       float64
}

type Report struct {
	JobID       string
	RequesterID string
	State       JobState
	Clips       []ClipResult
	Err         error
}

func (r Report) Delivered() int {
	n := 0
	for _, c := range r.Clips {
		if c.State == ClipDelivered {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	n := 0
	for _, c := range r.Clips {
		if c.State == ClipFailed {
			n++
		}
	}
	return n
}
