package tier

// Tier is an ordered quality rank. Ordering is defined by Level only; Label is
// for presentation.
type Tier interface {
	Level() int
	Label() string
}

// Compare returns -1, 0 or 1 as a's level is lower, equal or higher than b's.
func Compare[T Tier](a, b T) int {
	switch {
	case a.Level() < b.Level():
		return -1
	case a.Level() > b.Level():
		return 1
	default:
		return 0
	}
}

// Min returns the lower of the two tiers. Ties resolve to a.
func Min[T Tier](a, b T) T {
	if b.Level() < a.Level() {
		return b
	}
	return a
}

// Max returns the higher of the two tiers. Ties resolve to a.
func Max[T Tier](a, b T) T {
	if b.Level() > a.Level() {
		return b
	}
	return a
}

// Floor is Min that does not depend on argument order: on equal levels the
// tier with the lower label wins.
func Floor[T Tier](a, b T) T {
	if c := Compare(a, b); c > 0 || (c == 0 && b.Label() < a.Label()) {
		return b
	}
	return a
}

// Ceil is Max that does not depend on argument order: on equal levels the
// tier with the higher label wins.
func Ceil[T Tier](a, b T) T {
	if c := Compare(a, b); c < 0 || (c == 0 && b.Label() > a.Label()) {
		return b
	}
	return a
}

// MinOf reduces tiers with Min, left to right. ok is false for an empty list.
func MinOf[T Tier](tiers ...T) (result T, ok bool) {
	if len(tiers) == 0 {
		return result, false
	}
	result = tiers[0]
	for _, t := range tiers[1:] {
		result = Min(result, t)
	}
	return result, true
}

// MaxOf reduces tiers with Max, left to right. ok is false for an empty list.
func MaxOf[T Tier](tiers ...T) (result T, ok bool) {
	if len(tiers) == 0 {
		return result, false
	}
	result = tiers[0]
	for _, t := range tiers[1:] {
		result = Max(result, t)
	}
	return result, true
}
