package wifi

// ConfigOutcome is the result of a Configure call.
type ConfigOutcome int

const (
	Success          ConfigOutcome = 0
	ConnectionFailed ConfigOutcome = -1
	Timeout          ConfigOutcome = -2
)

// Code returns the numeric result code reported to clients.
func (o ConfigOutcome) Code() int {
	return int(o)
}

func (o ConfigOutcome) String() string {
	switch o {
	case Success:
		return "success"
	case ConnectionFailed:
		return "connection_failed"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// OK reports whether the outcome is Success.
func (o ConfigOutcome) OK() bool {
	return o == Success
}
