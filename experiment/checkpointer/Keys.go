package checkpointer

import (
	"fmt"
	"time"
)

// keyEnumerator enumerates checkpoint keys
type keyEnumerator struct {
	i      int
	prefix string
}

// key returns the next consecutive enumerated key
func (k *keyEnumerator) key() string {
	k.i++
	return fmt.Sprintf("%v-%d", k.prefix, k.i)
}

// KeyEnumerator returns a function which will return keys with a
// counter suffix. Each time the returned function is called, the
// counter suffix will be one higher than on the previous call, the
// first call returning start+1.
func KeyEnumerator(start int, prefix string) func() string {
	enum := keyEnumerator{i: start, prefix: prefix}

	return enum.key
}

// KeyTimer returns a function which will append to prefix the number of
// nanoseconds since January 1, 1970.
func KeyTimer(prefix string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v", prefix, time.Now().UnixNano())
	}
}
