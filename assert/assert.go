package assert

import "github.com/oomph-ac/solarsail/serror"

// IsTrue panics if ok is false. It is meant for contract breaches by collaborators, never for runtime
// conditions that can be recovered from.
func IsTrue(ok bool, message string, args ...any) {
	if !ok {
		panic(serror.New(message, args...))
	}
}
