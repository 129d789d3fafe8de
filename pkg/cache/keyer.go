package cache

// Keyer builds cache keys.
type Keyer interface {
	// OperationKey returns the key for one operation result.
	OperationKey(operation string, opts OperationKeyOpts) string
}

// OperationKeyOpts holds everything that changes an operation's encoded
// result besides the operation itself.
type OperationKeyOpts struct {
	InputFormat  string `json:"in"`
	OutputFormat string `json:"out"`
	BodyHash     string `json:"body"`
}

// DefaultKeyer produces keys of the form op:<operation>:<sha256>.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// OperationKey hashes opts under the operation's namespace.
func (k *DefaultKeyer) OperationKey(operation string, opts OperationKeyOpts) string {
	return hashKey("op:"+operation, opts)
}

var _ Keyer = (*DefaultKeyer)(nil)
