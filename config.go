package amss

import (
	"github.com/hashicorp/errwrap"
	"github.com/hashicorp/go-multierror"
)

// joinConfigErrors aggregates every configuration problem found during
// validation into a single error, so a caller sees every mistake at
// once instead of fixing one field at a time.
func joinConfigErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	var merr *multierror.Error
	for _, e := range errs {
		merr = multierror.Append(merr, errwrap.Wrapf("{{err}}", e))
	}
	merr.ErrorFormat = func(es []error) string {
		s := "amss: invalid configuration:"
		for _, e := range es {
			s += "\n  - " + e.Error()
		}
		return s
	}
	return merr
}
