//go:build linux

package replay

import "golang.org/x/sys/unix"

// pinThread binds the calling OS thread to cpu. restore puts back the mask
// the thread had before.
func pinThread(cpu int) (restore func() error, err error) {
	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		return nil, err
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return nil, err
	}
	return func() error {
		return unix.SchedSetaffinity(0, &prev)
	}, nil
}
