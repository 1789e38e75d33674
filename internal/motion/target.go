package motion

// Target is what an animation moves toward: either a single number or a set
// of named numbers. The variant is resolved once when the animation is
// built, never per frame.
type Target interface {
	targetKind() TargetKind
}

type TargetKind int

const (
	KindScalar TargetKind = iota
	KindStructured
)

// Scalar animates one value with a Driver.
type Scalar float64

// Structured animates named values together with a group.
type Structured map[string]float64

func (Scalar) targetKind() TargetKind     { return KindScalar }
func (Structured) targetKind() TargetKind { return KindStructured }

// KindOf reports the variant of t.
func KindOf(t Target) TargetKind {
	return t.targetKind()
}

// Keys returns the keys of s in unspecified order.
func (s Structured) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}
