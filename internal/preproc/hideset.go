package preproc

// hideSet is the set of macro names a token must not be expanded by again.
// Values are never mutated after construction, so tokens share them freely.
type hideSet map[string]struct{}

func (h hideSet) has(name string) bool {
	_, ok := h[name]
	return ok
}

func (h hideSet) with(name string) hideSet {
	if h.has(name) {
		return h
	}
	out := make(hideSet, len(h)+1)
	for k := range h {
		out[k] = struct{}{}
	}
	out[name] = struct{}{}
	return out
}

func (h hideSet) union(o hideSet) hideSet {
	if len(o) == 0 {
		return h
	}
	if len(h) == 0 {
		return o
	}
	out := make(hideSet, len(h)+len(o))
	for k := range h {
		out[k] = struct{}{}
	}
	for k := range o {
		out[k] = struct{}{}
	}
	return out
}

func (h hideSet) intersect(o hideSet) hideSet {
	var out hideSet
	for k := range h {
		if o.has(k) {
			if out == nil {
				out = make(hideSet)
			}
			out[k] = struct{}{}
		}
	}
	return out
}
