package auto

import (
	"fmt"
	"reflect"
)

// Binding pairs a job with the behavior that executes it. Bindings are
// created with Bind, which checks at compile time that the behavior accepts
// the job's type.
type Binding struct {
	job        Job
	owner      any
	task       task
	skipMirror bool
	err        error
}

// Bind binds job to behavior b.
func Bind[J JobType](b AutoBehavior[J], job J) Binding {
	if isNil(b) || isNil(job) {
		return Binding{err: fmt.Errorf("%w: behavior=%T job=%T", ErrInvalidBinding, b, job)}
	}
	slot := b.jobSlot()
	return Binding{
		job:   job,
		owner: slot,
		task:  &behaviorTask[J]{behavior: b, slot: slot, job: job},
	}
}

// SkipMirror returns a copy of the binding whose job is never reversed, even
// when the plan is built for the mirrored side.
func (b Binding) SkipMirror() Binding {
	b.skipMirror = true
	return b
}

// Job returns the bound job.
func (b Binding) Job() Job {
	return b.job
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func describe(job any) string {
	if s, ok := job.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", job)
}
