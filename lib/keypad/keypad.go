// Package keypad provides the 4x4 keypad of the master panel as a stream of
// keys. The matrix layout is:
//
//	7 8 9 /
//	4 5 6 *
//	1 2 3 -
//	# 0 = +
package keypad

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Key is a keypad symbol. It is deliberately a distinct type from the link
// opcodes, conversions happen only at the device boundary.
type Key byte

// KeyNone means no key was read, because the wait was abandoned.
const KeyNone Key = 0

const (
	Key0 Key = '0' + iota
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
)

const (
	KeyDivide   Key = '/'
	KeyMultiply Key = '*'
	KeyMinus    Key = '-'
	KeyPlus     Key = '+'
	KeyHash     Key = '#'
	KeyEquals   Key = '='
)

// Layout is the keypad matrix, row by row.
var Layout = [4][4]Key{
	{Key7, Key8, Key9, KeyDivide},
	{Key4, Key5, Key6, KeyMultiply},
	{Key1, Key2, Key3, KeyMinus},
	{KeyHash, Key0, KeyEquals, KeyPlus},
}

var all = lo.Flatten([][]Key{Layout[0][:], Layout[1][:], Layout[2][:], Layout[3][:]})

var ErrClosed = errors.New("keypad closed")

// Parse converts a character into a key, if it is on the keypad.
func Parse(c byte) (Key, bool) {
	k := Key(c)
	return k, k.Valid()
}

func (k Key) Valid() bool {
	return lo.Contains(all, k)
}

func (k Key) IsDigit() bool {
	return k >= Key0 && k <= Key9
}

// Digit returns the numeric value of a digit key.
func (k Key) Digit() (int, bool) {
	if !k.IsDigit() {
		return 0, false
	}
	return int(k - Key0), true
}

func (k Key) String() string {
	if k == KeyNone {
		return "none"
	}
	if k.Valid() {
		return string(rune(k))
	}
	return fmt.Sprintf("key(0x%02x)", byte(k))
}

// Source is a keypad. Each key press is delivered once on the channel; the
// channel is closed when the device goes away.
type Source interface {
	Keys() <-chan Key
}

// Read blocks for the next key press.
func Read(ctx context.Context, src Source) (Key, error) {
	return Wait(ctx, src, nil)
}

// Wait blocks for the next key press, giving up with KeyNone as soon as
// abandon is closed. A nil abandon channel waits forever.
func Wait(ctx context.Context, src Source, abandon <-chan struct{}) (Key, error) {
	select {
	case <-abandon:
		return KeyNone, nil
	default:
	}
	select {
	case k, ok := <-src.Keys():
		if !ok {
			return KeyNone, ErrClosed
		}
		return k, nil
	case <-abandon:
		return KeyNone, nil
	case <-ctx.Done():
		return KeyNone, ctx.Err()
	}
}

// Drain discards presses already waiting, returning how many were dropped.
// The panel polls its keypad, so a key pressed while it was busy is lost.
func Drain(src Source) int {
	n := 0
	for {
		select {
		case _, ok := <-src.Keys():
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
