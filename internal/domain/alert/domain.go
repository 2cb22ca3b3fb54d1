package alert

const (
	DefaultMessage    = "No message provided"
	DefaultStreamName = "Unknown Stream"
	DefaultErrorType  = "Error"
)

// Request is an inbound alert from the web application.
type Request struct {
	Message    string `json:"message"`
	StreamName string `json:"stream_name"`
	ErrorType  string `json:"error_type"`
}

// WithDefaults fills blank fields with the default labels.
func (r Request) WithDefaults() Request {
	if r.Message == "" {
		r.Message = DefaultMessage
	}
	if r.StreamName == "" {
		r.StreamName = DefaultStreamName
	}
	if r.ErrorType == "" {
		r.ErrorType = DefaultErrorType
	}
	return r
}
