//go:build !terraindebug

package residency

// check passes residency errors through to the caller, which logs them and carries on.
func check(err error) error {
	return err
}
