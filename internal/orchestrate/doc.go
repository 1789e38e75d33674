// Package orchestrate composes animations without adding physics:
// sequences, parallel sets and staggered starts, plus the pure delay
// patterns that staggers consume.
//
// Two factory shapes are deliberately distinct. [UnstartedFactory] returns
// an idle animation and [Sequence] / [Parallel] call Start on it.
// [StartedFactory] must return an animation that is already running;
// [Stagger] never starts anything itself.
package orchestrate
