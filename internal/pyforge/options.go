package pyforge

import "strings"

// Configure flags managed by policy. The optimization pair is always added or
// removed together; a partial state would build a PGO interpreter without LTO
// (or the reverse) and silently diverge from what the user asked for.
const (
	optOptimizations    = "--enable-optimizations"
	optLTO              = "--with-lto"
	optWithoutEnsurepip = "--without-ensurepip"
)

// OptionSet is a set of configure flags. Membership is what matters;
// insertion order is kept only so repeated runs hand configure the same
// command line and logs stay diffable.
type OptionSet struct {
	order  []string
	member map[string]struct{}
}

func newOptionSet(opts ...string) *OptionSet {
	s := &OptionSet{member: make(map[string]struct{}, len(opts))}
	for _, o := range opts {
		s.Add(o)
	}
	return s
}

// Add inserts opt unless already present.
func (s *OptionSet) Add(opt string) {
	if _, ok := s.member[opt]; ok {
		return
	}
	s.member[opt] = struct{}{}
	s.order = append(s.order, opt)
}

// Remove deletes opt and reports whether it was present.
func (s *OptionSet) Remove(opt string) bool {
	if _, ok := s.member[opt]; !ok {
		return false
	}
	delete(s.member, opt)
	for i, o := range s.order {
		if o == opt {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *OptionSet) Has(opt string) bool {
	_, ok := s.member[opt]
	return ok
}

func (s *OptionSet) Len() int { return len(s.order) }

// Slice returns the options in insertion order. The caller owns the copy.
func (s *OptionSet) Slice() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *OptionSet) Clone() *OptionSet {
	return newOptionSet(s.order...)
}

func (s *OptionSet) String() string {
	return strings.Join(s.order, " ")
}

// reconcileOptions merges the inherited option set with the optimization and
// pip policies and the user's include/exclude overrides. A disabled
// optimization policy strips its pair even when inheritance or include names
// them; excludes apply last and win over everything.
func reconcileOptions(inherited *OptionSet, optimize, pip bool, include, exclude []string) *OptionSet {
	opts := inherited.Clone()

	if optimize {
		opts.Add(optOptimizations)
		opts.Add(optLTO)
	}

	if pip {
		opts.Remove(optWithoutEnsurepip)
	} else {
		opts.Add(optWithoutEnsurepip)
	}

	for _, o := range include {
		opts.Add(o)
	}

	// The pair is all-or-nothing: with the policy off, neither flag may
	// survive, no matter where it came from.
	if !optimize {
		opts.Remove(optOptimizations)
		opts.Remove(optLTO)
	}

	for _, o := range exclude {
		opts.Remove(o)
	}

	return opts
}
