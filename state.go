package canvas

// State is the application's shared store. It is only ever touched on the
// frame goroutine: application callbacks read and write it directly, and
// scheduled tasks change it by returning callbacks that the Runner applies
// between frames.
//
// Values live under string names. Field gives typed access.
type State struct {
	values map[string]any
}

// NewState returns an empty store.
func NewState() *State {
	return &State{values: make(map[string]any)}
}

// Has reports whether a value is stored under name.
func (s *State) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Delete removes the value stored under name.
func (s *State) Delete(name string) {
	delete(s.values, name)
}

// Len returns the number of stored values.
func (s *State) Len() int { return len(s.values) }

// Field is a typed accessor for one named value in a State.
type Field[T any] struct {
	name    string
	initial T
}

// NewField declares a field. Reads of a field that was never set, or that
// holds a value of another type, return initial.
func NewField[T any](name string, initial T) Field[T] {
	return Field[T]{name: name, initial: initial}
}

// Name returns the field name.
func (f Field[T]) Name() string { return f.name }

// Get returns the field's value in s.
func (f Field[T]) Get(s *State) T {
	if v, ok := s.values[f.name].(T); ok {
		return v
	}
	return f.initial
}

// Set stores v in s.
func (f Field[T]) Set(s *State, v T) {
	s.values[f.name] = v
}

// Update replaces the field's value with fn applied to it.
func (f Field[T]) Update(s *State, fn func(T) T) {
	f.Set(s, fn(f.Get(s)))
}
