package protocol

import (
	"errors"

	"sensornode/core"
)

// SelfTestCapacity is the ring size SelfTest exercises
const SelfTestCapacity = 64

// SelfTest pushes and pops messages of 50, 25 and 5 bytes through a fresh
// ring, checking free space and contents after every step. It returns the
// first mismatch.
func SelfTest() error {
	r := NewPacketRing(SelfTestCapacity, nil)
	var got string
	r.SetTestSink(func(msg string) { got = msg })
	var overflow error
	r.SetOverflowHandler(func(err error) { overflow = err })

	msgs := [...]string{pattern(50, 1), pattern(25, 20), pattern(5, 35)}

	space := func(step string, want int) error {
		if overflow != nil {
			return errors.New("ring self test: " + step + ": " + overflow.Error())
		}
		if have := r.AvailableSpace(); have != want {
			return errors.New("ring self test: " + step + ": space " + core.Itoa(have) + ", want " + core.Itoa(want))
		}
		return nil
	}
	pop := func(step string, want string) error {
		if err := r.Pop(PopTest); err != nil {
			return errors.New("ring self test: " + step + ": " + err.Error())
		}
		if got != want {
			return errors.New("ring self test: " + step + ": popped " + core.Itoa(len(got)) + " bytes that differ from the " + core.Itoa(len(want)) + " pushed")
		}
		return nil
	}

	c := SelfTestCapacity
	steps := []func() error{
		func() error { return space("initial", c) },
		func() error { r.Push(msgs[0]); return space("push 50", c-len(msgs[0])-1) },
		func() error { return pop("pop 50", msgs[0]) },
		func() error { return space("after pop 50", c) },
		func() error { r.Push(msgs[1]); return space("push 25", c-len(msgs[1])-1) },
		func() error { r.Push(msgs[2]); return space("push 5", c-len(msgs[1])-1-len(msgs[2])-1) },
		func() error { return pop("pop 25", msgs[1]) },
		func() error { return space("after pop 25", c-len(msgs[2])-1) },
		func() error { return pop("pop 5", msgs[2]) },
		func() error { return space("drained", c) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	if err := r.Pop(PopTest); !errors.Is(err, ErrEmpty) {
		return errors.New("ring self test: pop from drained ring did not report empty")
	}
	return nil
}

// pattern returns n bytes counting up from first. No byte is zero.
func pattern(n int, first byte) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = first + byte(i)
	}
	return string(b)
}
