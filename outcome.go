package local

// OutcomeKind tags the variant of an Outcome
type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFail    OutcomeKind = "fail"
	OutcomeError   OutcomeKind = "error"
)

// Info carries the details attached to a Success or Fail outcome
type Info struct {
	Message string
	Err     error
}

// Outcome is the single result of an authentication attempt
type Outcome struct {
	Kind OutcomeKind
	User *User
	Info Info
	Err  error
}

// Success builds a success outcome
func Success(user *User, info Info) Outcome {
	return Outcome{Kind: OutcomeSuccess, User: user, Info: info}
}

// Fail builds a fail outcome
func Fail(info Info) Outcome {
	return Outcome{Kind: OutcomeFail, Info: info}
}

// Failure builds a fail outcome from an error, using its text as message
func Failure(err error) Outcome {
	return Fail(Info{Message: err.Error(), Err: err})
}

// Error builds an error outcome
func Error(err error) Outcome {
	return Outcome{Kind: OutcomeError, Err: err}
}

// Dispatch routes the outcome to the matching Host method
func (o Outcome) Dispatch(host Host) {
	if host == nil {
		return
	}

	switch o.Kind {
	case OutcomeSuccess:
		host.Success(o.User, o.Info)
	case OutcomeFail:
		host.Fail(o.Info)
	default:
		host.Error(o.Err)
	}
}

// HostFuncs adapts plain functions to the Host interface. Nil funcs are
// skipped.
type HostFuncs struct {
	OnSuccess func(user *User, info Info)
	OnFail    func(info Info)
	OnError   func(err error)
}

func (h HostFuncs) Success(user *User, info Info) {
	if h.OnSuccess != nil {
		h.OnSuccess(user, info)
	}
}

func (h HostFuncs) Fail(info Info) {
	if h.OnFail != nil {
		h.OnFail(info)
	}
}

func (h HostFuncs) Error(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Recorder is a Host that keeps every outcome it receives
type Recorder struct {
	Outcomes []Outcome
}

func (r *Recorder) Success(user *User, info Info) {
	r.Outcomes = append(r.Outcomes, Success(user, info))
}

func (r *Recorder) Fail(info Info) {
	r.Outcomes = append(r.Outcomes, Fail(info))
}

func (r *Recorder) Error(err error) {
	r.Outcomes = append(r.Outcomes, Error(err))
}

// Last returns the most recent outcome
func (r *Recorder) Last() (Outcome, bool) {
	if len(r.Outcomes) == 0 {
		return Outcome{}, false
	}
	return r.Outcomes[len(r.Outcomes)-1], true
}

var (
	_ Host = HostFuncs{}
	_ Host = (*Recorder)(nil)
)
