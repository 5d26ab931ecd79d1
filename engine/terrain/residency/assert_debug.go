//go:build terraindebug

package residency

// check panics on any residency error. Invalid transitions mean a double allocation or an
// eviction race, so debug builds stop at the first one.
func check(err error) error {
	if err != nil {
		panic(err)
	}
	return nil
}
