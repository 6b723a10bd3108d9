package entity

// New returns an entity of kind with first-materialization defaults:
// every pilot and creature attribute at 1, unit triads at 0.
//
// Precondition: kind.Valid().
func New(kind Kind, id, name string) Entity {
	e := Entity{ID: id, Kind: kind, Name: name}
	if kind != KindUnit {
		for _, f := range e.Attributes() {
			*f.Value = AttributeBounds.Min
		}
	}
	return e
}
