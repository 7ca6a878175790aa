package pipedream

import "github.com/pdkit/pdkit/types"

// IsTriggerComponent is the partition rule applied when triggers or steps
// must be derived from a full workflow: a component is a trigger iff its
// type marks it as a source/trigger, its key is the conventional trigger
// key, or it carries a populated source sub-object. Everything else is a
// step. The same predicate backs both derivations so the two sets are
// complementary and no component is lost or double-counted.
func IsTriggerComponent(c types.Component) bool {
	switch c.Type {
	case types.ComponentTypeSource, types.ComponentTypeTrigger:
		return true
	}
	if c.Key == types.TriggerKey {
		return true
	}
	return c.HasSource()
}

// DeriveTriggers filters components down to triggers.
func DeriveTriggers(components []types.Component) []types.Component {
	out := make([]types.Component, 0, len(components))
	for _, c := range components {
		if IsTriggerComponent(c) {
			out = append(out, c)
		}
	}
	return out
}

// DeriveSteps filters components down to non-trigger steps.
func DeriveSteps(components []types.Component) []types.Component {
	out := make([]types.Component, 0, len(components))
	for _, c := range components {
		if !IsTriggerComponent(c) {
			out = append(out, c)
		}
	}
	return out
}
