package seltra

// Result is the tagged outcome of a translation: either a success carrying
// the translated text or a failure carrying a reason and a message.
// Results are only built through Success and Failure.
type Result struct {
	ok      bool
	text    string
	reason  Reason
	message string
	retry   bool
}

// Success returns a successful Result.
func Success(text string) Result {
	return Result{ok: true, text: text}
}

// Failure returns a failed Result.
func Failure(reason Reason, message string) Result {
	if reason == "" {
		reason = ReasonUnexpected
	}
	return Result{reason: reason, message: message, retry: NewError(reason, message, nil).Retryable}
}

// FailureFrom converts an error into a failed Result.
func FailureFrom(err error) Result {
	te := Classify(err, "translation failed")
	if te == nil {
		return Failure(ReasonUnexpected, "unknown error")
	}
	msg := te.Message
	if te.Cause != nil {
		msg += ": " + te.Cause.Error()
	}
	r := Failure(te.Reason, msg)
	r.retry = te.Retryable
	return r
}

// OK reports whether the translation succeeded.
func (r Result) OK() bool { return r.ok }

// Text returns the translated text, or "" for a failure.
func (r Result) Text() string { return r.text }

// Reason returns the failure reason, or "" for a success.
func (r Result) Reason() Reason { return r.reason }

// Message returns the failure message, or "" for a success.
func (r Result) Message() string { return r.message }

// Err returns the failure as a *TranslationError, or nil for a success.
func (r Result) Err() error {
	if r.ok {
		return nil
	}
	return &TranslationError{Reason: r.reason, Message: r.message, Retryable: r.retry}
}

// String renders the result for display.
func (r Result) String() string {
	if r.ok {
		return r.text
	}
	return string(r.reason) + ": " + r.message
}
