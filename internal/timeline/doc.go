// Package timeline schedules tracks of property animations on one shared
// playhead that can play, pause, reverse and seek.
//
// Every track value is a pure function of the playhead. Spring tracks replay
// the integrator from rest for floor(t*60) frames, so seeking to the same
// time always yields bit-identical values no matter what happened before.
package timeline
