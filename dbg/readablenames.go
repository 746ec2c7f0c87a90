package dbg

import (
	"fmt"
	"reflect"
	"strings"

	petname "github.com/dustinkirkland/golang-petname"
)

// Readable names for the pointer-heavy structures in this module. A
// topology dump full of raw pointers is unreadable; mapping each vertex to
// a stable pet name makes it possible to follow a pinwheel or an ear ring
// by eye. Names are memoized per object and generated lazily, so the
// deliberate memory leak is only paid while debugging.

var memo = make(map[interface{}]string)

func init() {
	// Since the names are generated in order of demand, we make them
	// nondetemrinistic to remind the user that the same name doesn't refer
	// to the same thing between runs.
	petname.NonDeterministicMode()
}

// Name returns the readable name for obj, stable within this run. Nil
// objects (the ghost vertex, unset links) all map to the empty-set glyph.
func Name(obj interface{}) string {
	if obj == nil || reflect.ValueOf(obj).IsNil() {
		return "Ø"
	}

	if r, ok := memo[obj]; ok {
		return r
	}
	r := fmt.Sprintf("%s%s", strings.Title(petname.Adjective()), strings.Title(petname.Name()))
	memo[obj] = r
	return r
}

// Named formats obj as "Name(label)", keeping the object's own label
// visible next to the readable name.
func Named(obj interface{}, label string) string {
	return fmt.Sprintf("%s(%s)", Name(obj), label)
}
